package services

import (
	"github.com/upb/unified-workspace/backend/entra"
	"github.com/upb/unified-workspace/backend/models"
)

var (
	defaultProfile = models.User{
		ID:    "1",
		Name:  "John Doe",
		Email: "john@example.com",
	}

	defaultJobSummary = models.JobSummary{
		ActiveJobs:   500,
		JobMatchings: 2,
		ExpiringJobs: 3,
	}
)

// ProfileService serves the header profile and the job counters
type ProfileService struct{}

// NewProfileService creates a new ProfileService
func NewProfileService() *ProfileService {
	return &ProfileService{}
}

// Profile derives the profile from identity, or returns the placeholder
// profile for anonymous requests.
func (s *ProfileService) Profile(identity *entra.Identity) models.User {
	if identity == nil {
		return defaultProfile
	}
	return models.User{
		ID:    identity.Subject(),
		Name:  identity.Name(),
		Email: identity.Email(),
	}
}

// JobSummary returns the dashboard job counters
func (s *ProfileService) JobSummary() models.JobSummary {
	return defaultJobSummary
}

// AuthenticatedUser summarises a verified identity for the auth endpoints
func AuthenticatedUser(identity *entra.Identity) models.AuthenticatedUser {
	return models.AuthenticatedUser{
		ID:       identity.Subject(),
		Email:    identity.Email(),
		Name:     identity.Name(),
		TenantID: identity.TenantID(),
	}
}
