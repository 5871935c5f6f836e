package entities

import (
	"errors"

	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
)

// Person is an individual in the tree. Persons are created once and
// mutated in place; they are never deleted by the core (deletion is a
// remote-only operation).
type Person struct {
	id     valueobjects.EntityID
	name   string
	gender valueobjects.Gender
}

// NewPerson creates a new person with a fresh id
func NewPerson(name string, gender valueobjects.Gender) (*Person, error) {
	if name == "" {
		return nil, errors.New("person name required")
	}
	if !gender.IsValid() {
		return nil, errors.New("person gender required")
	}

	return &Person{
		id:     valueobjects.NewEntityID(),
		name:   name,
		gender: gender,
	}, nil
}

// ReconstructPerson recreates a person from stored data
func ReconstructPerson(id valueobjects.EntityID, name string, gender valueobjects.Gender) (*Person, error) {
	if id.IsZero() {
		return nil, errors.New("person id required for reconstruction")
	}
	if name == "" || !gender.IsValid() {
		return nil, errors.New("required fields missing for person reconstruction")
	}

	return &Person{
		id:     id,
		name:   name,
		gender: gender,
	}, nil
}

// ID returns the person's unique identifier
func (p *Person) ID() valueobjects.EntityID {
	return p.id
}

// Name returns the person's display name
func (p *Person) Name() string {
	return p.name
}

// Gender returns the person's gender
func (p *Person) Gender() valueobjects.Gender {
	return p.gender
}

// Rename updates the person's display name
func (p *Person) Rename(name string) error {
	if name == "" {
		return errors.New("person name cannot be empty")
	}
	p.name = name
	return nil
}

// SetGender updates the person's gender
func (p *Person) SetGender(gender valueobjects.Gender) error {
	if !gender.IsValid() {
		return errors.New("invalid gender")
	}
	p.gender = gender
	return nil
}
