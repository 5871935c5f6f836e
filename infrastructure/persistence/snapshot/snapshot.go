// Package snapshot defines the persisted form of a family tree and the
// mapping between it and the domain aggregate. The same records feed the
// remote data service, the blob store document and the content-hash
// change detection.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/indiafamilytree/familytree/domain/core/aggregates"
	"github.com/indiafamilytree/familytree/domain/core/entities"
	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

// PersonRecord is the persisted shape of a person
type PersonRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// FamilyRecord is the persisted shape of a family. Signature is the
// display name derived from the parents; Members is the canonical
// membership list.
type FamilyRecord struct {
	ID        string            `json:"id"`
	Signature string            `json:"name"`
	Members   []entities.Member `json:"members"`
}

// Snapshot is the full persisted document for one tree. Decoding is
// case-insensitive on the top-level keys, so documents written with
// capitalized keys load the same way.
type Snapshot struct {
	Persons  []PersonRecord `json:"persons"`
	Families []FamilyRecord `json:"families"`
}

// Historical documents vary in field naming, so decoding accepts the
// aliases older writers produced.

type personRecordJSON struct {
	ID        string `json:"id"`
	PersonID  string `json:"personId"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	Gender    string `json:"gender"`
}

func (r *PersonRecord) UnmarshalJSON(data []byte) error {
	var raw personRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = firstNonEmpty(raw.ID, raw.PersonID)
	r.Name = firstNonEmpty(raw.Name, raw.FirstName)
	r.Gender = raw.Gender
	return nil
}

type familyRecordJSON struct {
	ID              string          `json:"id"`
	FamilyID        string          `json:"familyId"`
	Name            string          `json:"name"`
	FamilySignature string          `json:"familySignature"`
	Members         json.RawMessage `json:"members"`
}

// UnmarshalJSON accepts members either as an embedded array or as a
// JSON-encoded string, which is how the data service stores them.
func (r *FamilyRecord) UnmarshalJSON(data []byte) error {
	var raw familyRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = firstNonEmpty(raw.ID, raw.FamilyID)
	r.Signature = firstNonEmpty(raw.Name, raw.FamilySignature)
	r.Members = nil

	if len(raw.Members) == 0 {
		return nil
	}
	if raw.Members[0] == '"' {
		var nested string
		if err := json.Unmarshal(raw.Members, &nested); err != nil {
			return err
		}
		if nested == "" {
			return nil
		}
		return json.Unmarshal([]byte(nested), &r.Members)
	}
	return json.Unmarshal(raw.Members, &r.Members)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// MembersJSON returns the membership list as a JSON string, the encoding
// the data service expects for the members field. An empty list encodes
// as "[]".
func (r FamilyRecord) MembersJSON() string {
	if len(r.Members) == 0 {
		return "[]"
	}
	data, err := json.Marshal(r.Members)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ContentHash fingerprints the fields that matter for synchronization.
// Two person records with equal hashes need no remote write.
func (r PersonRecord) ContentHash() string {
	return hashFields(r.ID, r.Name, r.Gender)
}

// ContentHash fingerprints the family's id, signature and membership
func (r FamilyRecord) ContentHash() string {
	return hashFields(r.ID, r.Signature, r.MembersJSON())
}

func hashFields(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// ContentHash fingerprints the whole document. It covers every record
// hash in order, so any record change changes the tree hash.
func (s *Snapshot) ContentHash() string {
	var b strings.Builder
	for _, p := range s.Persons {
		b.WriteString(p.ContentHash())
		b.WriteByte('\n')
	}
	for _, f := range s.Families {
		b.WriteString(f.ContentHash())
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// FromTree projects the aggregate into its persisted form. Record order
// follows the tree's insertion order, keeping the document stable across
// identical states.
func FromTree(t *aggregates.Tree) *Snapshot {
	s := &Snapshot{}
	for _, p := range t.Persons() {
		s.Persons = append(s.Persons, PersonRecord{
			ID:     p.ID().String(),
			Name:   p.Name(),
			Gender: p.Gender().String(),
		})
	}
	for _, f := range t.Families() {
		s.Families = append(s.Families, FamilyRecord{
			ID:        f.ID().String(),
			Signature: f.Signature(),
			Members:   f.Members(),
		})
	}
	return s
}

// BuildTree reconstructs the aggregate from the persisted document.
// Records that cannot be reconstructed are skipped rather than failing
// the whole load; a member pointing at a missing person is dropped the
// same way.
func (s *Snapshot) BuildTree() (*aggregates.Tree, error) {
	persons := make([]*entities.Person, 0, len(s.Persons))
	genders := make(map[valueobjects.EntityID]valueobjects.Gender, len(s.Persons))
	var rootID valueobjects.EntityID

	for _, record := range s.Persons {
		id, err := valueobjects.NewEntityIDFromString(record.ID)
		if err != nil {
			continue
		}
		gender, err := valueobjects.ParseGender(record.Gender)
		if err != nil {
			continue
		}
		person, err := entities.ReconstructPerson(id, record.Name, gender)
		if err != nil {
			continue
		}
		if rootID.IsZero() {
			rootID = id
		}
		persons = append(persons, person)
		genders[id] = gender
	}

	families := make([]*entities.Family, 0, len(s.Families))
	for _, record := range s.Families {
		id, err := valueobjects.NewEntityIDFromString(record.ID)
		if err != nil {
			continue
		}
		family, err := entities.ReconstructFamily(id, record.Signature)
		if err != nil {
			continue
		}
		for _, member := range record.Members {
			gender, ok := genders[member.PersonID]
			if !ok {
				continue
			}
			if err := family.RestoreMember(member, gender); err != nil {
				continue
			}
		}
		families = append(families, family)
	}

	tree := aggregates.NewTree()
	if err := tree.Restore(persons, families, rootID); err != nil {
		return nil, err
	}
	return tree, nil
}

// Decode parses a persisted document
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.NewSerializationError("decode tree snapshot", err)
	}
	return &s, nil
}

// Encode serializes the document for the blob store
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, apperrors.NewSerializationError("encode tree snapshot", err)
	}
	return data, nil
}
