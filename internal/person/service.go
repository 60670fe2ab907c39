package person

import (
	"context"
	"fmt"

	"github.com/inventra/asset-management-api/internal/person/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/error/serviceerror"
	"github.com/inventra/asset-management-api/internal/system/stores"
	"github.com/inventra/asset-management-api/internal/system/utils"
)

// PersonService defines the exported service interface
type PersonService interface {
	CreatePerson(ctx context.Context, req model.PersonCreateRequest) (*model.Person, *serviceerror.ServiceError)
	GetPerson(ctx context.Context, personnelNumber string) (*model.Person, *serviceerror.ServiceError)
	ListPersons(ctx context.Context, limit, offset int) ([]model.Person, *serviceerror.ServiceError)
}

// personService implements the PersonService interface
type personService struct {
	stores *stores.StoreRegistry
}

// newPersonService creates a new person service
func newPersonService(registry *stores.StoreRegistry) PersonService {
	return &personService{
		stores: registry,
	}
}

// CreatePerson registers a new person in the directory
func (s *personService) CreatePerson(ctx context.Context, req model.PersonCreateRequest) (*model.Person, *serviceerror.ServiceError) {
	person := &model.Person{
		PersonnelNumber: req.PersonnelNumber,
		Name:            req.Name,
		Family:          req.Family,
		NationalID:      req.NationalID,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		CreatedTime:     utils.GetCurrentTimeMillis(),
	}

	if err := person.Validate(); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	existing, dbErr := s.stores.PersonStore.GetByPersonnelNumber(ctx, req.PersonnelNumber)
	if dbErr != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to check personnel number: %v", dbErr))
	}
	if existing != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError,
			fmt.Sprintf("person with personnel number '%s' already exists", req.PersonnelNumber))
	}

	err := s.stores.ExecuteTransaction([]func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return s.stores.PersonStore.Create(tx, person)
		},
	})
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to create person: %v", err))
	}

	return person, nil
}

// GetPerson retrieves a person by personnel number
func (s *personService) GetPerson(ctx context.Context, personnelNumber string) (*model.Person, *serviceerror.ServiceError) {
	person, err := s.stores.PersonStore.GetByPersonnelNumber(ctx, personnelNumber)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to retrieve person: %v", err))
	}
	if person == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("person with personnel number '%s' not found", personnelNumber))
	}
	return person, nil
}

// ListPersons retrieves a paginated list of persons
func (s *personService) ListPersons(ctx context.Context, limit, offset int) ([]model.Person, *serviceerror.ServiceError) {
	if limit <= 0 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	persons, err := s.stores.PersonStore.List(ctx, limit, offset)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to list persons: %v", err))
	}
	return persons, nil
}
