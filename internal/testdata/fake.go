package testdata

import (
	"github.com/brianvoe/gofakeit/v7"
)

// Faker generates throwaway values for negative cases.
type Faker struct {
	f *gofakeit.Faker
}

// NewFaker returns a generator; a zero seed is random.
func NewFaker(seed uint64) *Faker {
	return &Faker{f: gofakeit.New(seed)}
}

func (g *Faker) Email() string     { return g.f.Email() }
func (g *Faker) FirstName() string { return g.f.FirstName() }
func (g *Faker) LastName() string  { return g.f.LastName() }
func (g *Faker) Phone() string     { return g.f.Phone() }

// Password returns a 12 character password with mixed classes.
func (g *Faker) Password() string {
	return g.f.Password(true, true, true, true, false, 12)
}
