package person

import (
	"context"

	"github.com/inventra/asset-management-api/internal/person/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/database/provider"
	"github.com/inventra/asset-management-api/internal/system/stores/interfaces"
)

// DBQuery objects for all person directory operations
var (
	QueryCreatePerson = dbmodel.DBQuery{
		ID:    "CREATE_PERSON",
		Query: "INSERT INTO PERSON (PERSONNEL_NUMBER, NAME, FAMILY, NATIONAL_ID, EMAIL, PHONE_NUMBER, CREATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetPersonByPersonnelNumber = dbmodel.DBQuery{
		ID:    "GET_PERSON_BY_PERSONNEL_NUMBER",
		Query: "SELECT PERSONNEL_NUMBER, NAME, FAMILY, NATIONAL_ID, EMAIL, PHONE_NUMBER, CREATED_TIME FROM PERSON WHERE PERSONNEL_NUMBER = ?",
	}

	QueryListPersons = dbmodel.DBQuery{
		ID:    "LIST_PERSONS",
		Query: "SELECT PERSONNEL_NUMBER, NAME, FAMILY, NATIONAL_ID, EMAIL, PHONE_NUMBER, CREATED_TIME FROM PERSON ORDER BY FAMILY, NAME LIMIT ? OFFSET ?",
	}
)

// store implements interfaces.PersonStoreInterface
type store struct {
	dbClient provider.DBClientInterface
}

// newPersonStore creates a new person store
func newPersonStore(dbClient provider.DBClientInterface) interfaces.PersonStoreInterface {
	return &store{
		dbClient: dbClient,
	}
}

// Create inserts a new person within a transaction
func (s *store) Create(tx dbmodel.TxInterface, person *model.Person) error {
	_, err := tx.Exec(QueryCreatePerson.Query,
		person.PersonnelNumber, person.Name, person.Family, person.NationalID,
		person.Email, person.PhoneNumber, person.CreatedTime)
	return err
}

// GetByPersonnelNumber retrieves a person by personnel number
func (s *store) GetByPersonnelNumber(ctx context.Context, personnelNumber string) (*model.Person, error) {
	rows, err := s.dbClient.Query(QueryGetPersonByPersonnelNumber, personnelNumber)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToPerson(rows[0]), nil
}

// List retrieves a paginated list of persons
func (s *store) List(ctx context.Context, limit, offset int) ([]model.Person, error) {
	rows, err := s.dbClient.Query(QueryListPersons, limit, offset)
	if err != nil {
		return nil, err
	}

	persons := make([]model.Person, 0, len(rows))
	for _, row := range rows {
		if p := mapToPerson(row); p != nil {
			persons = append(persons, *p)
		}
	}
	return persons, nil
}

// mapToPerson maps a database row to a Person model
func mapToPerson(row map[string]interface{}) *model.Person {
	if row == nil {
		return nil
	}

	person := &model.Person{}

	if pn, ok := row["PERSONNEL_NUMBER"].(string); ok {
		person.PersonnelNumber = pn
	}
	if name, ok := row["NAME"].(string); ok {
		person.Name = name
	}
	if family, ok := row["FAMILY"].(string); ok {
		person.Family = family
	}
	if nationalID, ok := row["NATIONAL_ID"].(string); ok {
		person.NationalID = nationalID
	}
	if email, ok := row["EMAIL"].(string); ok {
		emailCopy := email
		person.Email = &emailCopy
	}
	if phone, ok := row["PHONE_NUMBER"].(string); ok {
		phoneCopy := phone
		person.PhoneNumber = &phoneCopy
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		person.CreatedTime = created
	}

	return person
}
