package usecases

import "github.com/twmiller/dl-44/internal/interfaces"

// NewUsecases builds the use case layer over the laser service.
func NewUsecases(
	laserSvc interfaces.LaserService,
) interfaces.Usecases {
	return NewUsecase(laserSvc)
}
