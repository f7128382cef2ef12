package store

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	"github.com/luxfi/pet"
	"github.com/luxfi/pet/codec"
	"github.com/luxfi/pet/petcrypto"
)

const latestModelKey = "pet/latest-global-model"

// DBModelStorage is a ModelStorage backed by a luxfi/database.Database,
// the same key-value abstraction luxfi/database
// defines (Reader/Writer/Batch over raw bytes). Models are
// content-addressed: the id is the hash of round id || round seed, so
// re-finalizing the same round deterministically overwrites the same
// record instead of leaking a new one.
type DBModelStorage struct {
	db database.Database
}

// NewDBModelStorage wraps db as a ModelStorage.
func NewDBModelStorage(db database.Database) *DBModelStorage {
	return &DBModelStorage{db: db}
}

func modelID(roundID pet.RoundID, seed pet.RoundSeed) ids.ID {
	buf := make([]byte, 8, 8+32)
	binary.BigEndian.PutUint64(buf, uint64(roundID))
	buf = append(buf, seed[:]...)
	return ids.ID(petcrypto.Hash32(buf))
}

func modelRecordKey(id ids.ID) []byte {
	return []byte("pet/model/" + id.String())
}

// SetGlobalModel implements ModelStorage.
func (s *DBModelStorage) SetGlobalModel(_ context.Context, roundID pet.RoundID, seed pet.RoundSeed, model []float64) (ids.ID, error) {
	id := modelID(roundID, seed)

	raw, err := codec.Codec.Marshal(codec.CurrentVersion, model)
	if err != nil {
		return ids.ID{}, fmt.Errorf("store: marshal global model: %w", err)
	}

	if err := s.db.Put(modelRecordKey(id), raw); err != nil {
		return ids.ID{}, fmt.Errorf("store: persist global model: %w", err)
	}
	if err := s.db.Put([]byte(latestModelKey), id[:]); err != nil {
		return ids.ID{}, fmt.Errorf("store: persist latest global model id: %w", err)
	}
	return id, nil
}

// GlobalModel implements ModelStorage.
func (s *DBModelStorage) GlobalModel(_ context.Context, id ids.ID) ([]float64, error) {
	raw, err := s.db.Get(modelRecordKey(id))
	if err != nil {
		return nil, fmt.Errorf("store: fetch global model %s: %w", id, err)
	}

	var model []float64
	if _, err := codec.Codec.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("store: unmarshal global model %s: %w", id, err)
	}
	return model, nil
}

// LatestGlobalModelID implements ModelStorage.
func (s *DBModelStorage) LatestGlobalModelID(_ context.Context) (ids.ID, bool, error) {
	has, err := s.db.Has([]byte(latestModelKey))
	if err != nil {
		return ids.ID{}, false, fmt.Errorf("store: check latest global model id: %w", err)
	}
	if !has {
		return ids.ID{}, false, nil
	}

	raw, err := s.db.Get([]byte(latestModelKey))
	if err != nil {
		return ids.ID{}, false, fmt.Errorf("store: fetch latest global model id: %w", err)
	}
	id, err := ids.ToID(raw)
	if err != nil {
		return ids.ID{}, false, fmt.Errorf("store: decode latest global model id: %w", err)
	}
	return id, true, nil
}
