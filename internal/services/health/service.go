package health

const welcomeMessage = "Welcome to the homepage"

// Service answers the liveness probe.
type Service struct{}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{}
}

// Status returns the plain-text acknowledgement served at /getstatus.
func (s *Service) Status() string {
	return welcomeMessage
}
