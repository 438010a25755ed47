package distributor

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"

	"github.com/vedistorg/libvedist-go/types"
)

var (
	bucketTokensPerEpoch = []byte("tokens_per_epoch")
	bucketSupplyPerEpoch = []byte("supply_per_epoch")
	bucketCursors        = []byte("cursors")
	bucketAccountCursors = []byte("account_cursors")
	bucketMeta           = []byte("meta")

	keyTokenTime    = []byte("token_time")
	keyTokenBalance = []byte("token_balance")
	keySupplyCursor = []byte("supply_cursor")
	keyMeta         = []byte("meta")
)

// BoltStore persists the distribution ledgers in a bbolt database, so a
// distributor can be reopened with its full epoch history, cursors, and
// admin state intact.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("distributor: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("distributor: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketTokensPerEpoch, bucketSupplyPerEpoch, bucketCursors, bucketAccountCursors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("distributor: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// epochKey encodes an epoch as an 8-byte big-endian key for sorted storage.
func epochKey(e uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, e)
	return k
}

// encodeAmount serializes a uint256 amount as 32 big-endian bytes.
func encodeAmount(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

func decodeAmount(data []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(data)
}

func (s *BoltStore) TokensAt(e uint64) (*uint256.Int, error) {
	return s.readAmount(bucketTokensPerEpoch, epochKey(e))
}

func (s *BoltStore) AddTokens(e uint64, amount *uint256.Int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTokensPerEpoch)
		key := epochKey(e)
		total := new(uint256.Int)
		if data := b.Get(key); data != nil {
			total.SetBytes(data)
		}
		total.Add(total, amount)
		if err := b.Put(key, encodeAmount(total)); err != nil {
			return fmt.Errorf("boltstore: put epoch tokens: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) SupplyAt(e uint64) (*uint256.Int, error) {
	return s.readAmount(bucketSupplyPerEpoch, epochKey(e))
}

func (s *BoltStore) SetSupply(e uint64, amount *uint256.Int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSupplyPerEpoch).Put(epochKey(e), encodeAmount(amount)); err != nil {
			return fmt.Errorf("boltstore: put epoch supply: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) TokenCursor() (uint64, *uint256.Int, error) {
	var lastTime uint64
	lastBalance := new(uint256.Int)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCursors)
		if data := b.Get(keyTokenTime); data != nil {
			lastTime = binary.BigEndian.Uint64(data)
		}
		if data := b.Get(keyTokenBalance); data != nil {
			lastBalance.SetBytes(data)
		}
		return nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("boltstore: read token cursor: %w", err)
	}
	return lastTime, lastBalance, nil
}

func (s *BoltStore) SetTokenCursor(lastTime uint64, lastBalance *uint256.Int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCursors)
		if err := b.Put(keyTokenTime, epochKey(lastTime)); err != nil {
			return fmt.Errorf("boltstore: put token time: %w", err)
		}
		if err := b.Put(keyTokenBalance, encodeAmount(lastBalance)); err != nil {
			return fmt.Errorf("boltstore: put token balance: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) SupplyCursor() (uint64, error) {
	var cursor uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketCursors).Get(keySupplyCursor); data != nil {
			cursor = binary.BigEndian.Uint64(data)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("boltstore: read supply cursor: %w", err)
	}
	return cursor, nil
}

func (s *BoltStore) SetSupplyCursor(e uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketCursors).Put(keySupplyCursor, epochKey(e)); err != nil {
			return fmt.Errorf("boltstore: put supply cursor: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) AccountCursor(account types.Address) (uint64, error) {
	var cursor uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucketAccountCursors).Get(account[:]); data != nil {
			cursor = binary.BigEndian.Uint64(data)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("boltstore: read account cursor: %w", err)
	}
	return cursor, nil
}

func (s *BoltStore) SetAccountCursor(account types.Address, e uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketAccountCursors).Put(account[:], epochKey(e)); err != nil {
			return fmt.Errorf("boltstore: put account cursor: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) Meta() (*Meta, error) {
	var meta Meta
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyMeta)
		if data == nil {
			return ErrNoMeta
		}
		if err := decodeGob(data, &meta); err != nil {
			return fmt.Errorf("boltstore: decode meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *BoltStore) SetMeta(m *Meta) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(m)
		if err != nil {
			return fmt.Errorf("boltstore: encode meta: %w", err)
		}
		if err := tx.Bucket(bucketMeta).Put(keyMeta, data); err != nil {
			return fmt.Errorf("boltstore: put meta: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) readAmount(bucket, key []byte) (*uint256.Int, error) {
	v := new(uint256.Int)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(bucket).Get(key); data != nil {
			v.SetBytes(data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: read amount: %w", err)
	}
	return v, nil
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
