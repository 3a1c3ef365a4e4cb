package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes code+pepper with bcrypt. The pepper stays in configuration,
// never next to the hash.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt falls back to bcrypt.DefaultCost when cost is outside the range
// bcrypt accepts.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (b *Bcrypt) Hash(code string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(code+b.pepper), b.cost)
}

func (b *Bcrypt) Verify(hashed, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(code+b.pepper)) == nil
}
