package service

import (
	"go.uber.org/zap"

	"identity_admin/internal/repository"
)

type Services struct {
	User        *UserService
	ApiResource *ApiResourceService
	ChangeHub   *ChangeHub
}

func NewServices(repos *repository.Repositories, logger *zap.Logger) *Services {
	hub := NewChangeHub(logger)

	return &Services{
		User:        NewUserService(repos.User, logger),
		ApiResource: NewApiResourceService(repos.ApiResource, hub, logger),
		ChangeHub:   hub,
	}
}
