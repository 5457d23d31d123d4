package services

import (
	"context"
	"time"

	"megacity/pkg/cache"
	"megacity/pkg/models"
)

// FilterAll is the identity value for either filter axis.
const FilterAll = "All"

const (
	catalogKey = "catalog:vehicles"
	catalogTTL = 30 * time.Second
)

// CatalogAPI is the slice of the backend client the catalog needs.
type CatalogAPI interface {
	ViewCars(ctx context.Context) ([]models.CarDTO, error)
}

// CatalogService loads the vehicle catalog from the backend, normalizes the
// wire DTOs and keeps a short-lived cache in front so the fleet page and
// the wizard don't hammer the backend on every render.
type CatalogService struct {
	api   CatalogAPI
	cache cache.Cache
}

func NewCatalog(api CatalogAPI, c cache.Cache) *CatalogService {
	return &CatalogService{api: api, cache: c}
}

// Vehicles returns the full normalized catalog. A load failure is returned
// as-is so callers can distinguish "could not reach catalog service" from
// an empty fleet.
func (s *CatalogService) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	var cached []models.Vehicle
	if s.cache.Get(catalogKey, &cached) {
		return cached, nil
	}

	dtos, err := s.api.ViewCars(ctx)
	if err != nil {
		return nil, err
	}

	vehicles := make([]models.Vehicle, 0, len(dtos))
	for _, d := range dtos {
		vehicles = append(vehicles, d.ToVehicle())
	}

	s.cache.Set(catalogKey, vehicles, catalogTTL)
	return vehicles, nil
}

// Available keeps only bookable vehicles, for the wizard's selection step.
func (s *CatalogService) Available(ctx context.Context) ([]models.Vehicle, error) {
	vehicles, err := s.Vehicles(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]models.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Available {
			available = append(available, v)
		}
	}
	return available, nil
}

// Invalidate drops the cached catalog after an admin fleet mutation.
func (s *CatalogService) Invalidate() {
	s.cache.DelPattern("catalog:*")
}

// Filter applies the fleet page filters. "All" is the identity for an
// axis; the availability axis accepts "Available" and "Unavailable".
// With both axes at "All" the input slice comes back unchanged.
func Filter(vehicles []models.Vehicle, carType, availability string) []models.Vehicle {
	result := vehicles

	if carType != "" && carType != FilterAll {
		filtered := make([]models.Vehicle, 0, len(result))
		for _, v := range result {
			if v.Type == carType {
				filtered = append(filtered, v)
			}
		}
		result = filtered
	}

	if availability != "" && availability != FilterAll {
		want := availability == "Available"
		filtered := make([]models.Vehicle, 0, len(result))
		for _, v := range result {
			if v.Available == want {
				filtered = append(filtered, v)
			}
		}
		result = filtered
	}

	return result
}

// FindVehicle looks a vehicle up by ID.
func FindVehicle(vehicles []models.Vehicle, id string) (models.Vehicle, bool) {
	for _, v := range vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return models.Vehicle{}, false
}
