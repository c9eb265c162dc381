// Package store persists scheduling records in a bbolt database.
//
// Records are stored one key per record, serialized as small JSON
// documents, under a bucket per record kind. The store implements
// sched.Store so a Project commit writes through it.
package store

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	bolt "go.etcd.io/bbolt"

	"github.com/schedgrid/schedgrid/internal/sched"
)

var (
	bucketTasks = []byte("tasks")
	bucketLanes = []byte("lanes")
	bucketDeps  = []byte("deps")
)

// Bolt is a bbolt-backed sched.Store.
type Bolt struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketTasks, bucketLanes, bucketDeps} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing store %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the database.
func (s *Bolt) Close() error {
	return s.db.Close()
}

// SaveTask writes one task record.
func (s *Bolt) SaveTask(t *sched.Task) error {
	doc, err := encodeTask(t)
	if err != nil {
		return err
	}
	return s.put(bucketTasks, t.ID, doc)
}

// SaveLane writes one lane record.
func (s *Bolt) SaveLane(l *sched.Lane) error {
	doc, err := encodeLane(l)
	if err != nil {
		return err
	}
	return s.put(bucketLanes, l.ID, doc)
}

// SaveDependency writes one dependency record.
func (s *Bolt) SaveDependency(d *sched.Dependency) error {
	doc, err := encodeDep(d)
	if err != nil {
		return err
	}
	return s.put(bucketDeps, d.ID, doc)
}

func (s *Bolt) put(bucket []byte, key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", bucket, key, err)
	}
	return nil
}

// LoadInto restores every stored record into the project.
func (s *Bolt) LoadInto(p *sched.Project) error {
	p.SuspendRefresh()
	defer func() {
		p.ResumeRefresh()
		p.Refresh()
	}()

	return s.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketLanes).ForEach(func(_, v []byte) error {
			p.AddLane(decodeLane(v))
			return nil
		})
		if err != nil {
			return err
		}
		err = tx.Bucket(bucketTasks).ForEach(func(_, v []byte) error {
			t, err := decodeTask(v)
			if err != nil {
				return err
			}
			p.AddTask(t)
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDeps).ForEach(func(_, v []byte) error {
			d := decodeDep(v)
			_, err := p.AddDependency(d.From, d.To, d.Lag)
			return err
		})
	})
}

func encodeTask(t *sched.Task) ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}
	set("id", t.ID)
	set("name", t.Name)
	set("durationMinutes", int(t.Duration/time.Minute))
	set("participants", t.Participants)
	if t.Scheduled {
		set("lane", t.LaneID)
		set("start", t.Start.UTC().Format(time.RFC3339))
	}
	if err != nil {
		return nil, fmt.Errorf("encoding task %s: %w", t.ID, err)
	}
	return doc, nil
}

func decodeTask(doc []byte) (*sched.Task, error) {
	t := &sched.Task{
		ID:           gjson.GetBytes(doc, "id").String(),
		Name:         gjson.GetBytes(doc, "name").String(),
		Duration:     time.Duration(gjson.GetBytes(doc, "durationMinutes").Int()) * time.Minute,
		Participants: int(gjson.GetBytes(doc, "participants").Int()),
	}
	if lane := gjson.GetBytes(doc, "lane").String(); lane != "" {
		start, err := time.Parse(time.RFC3339, gjson.GetBytes(doc, "start").String())
		if err != nil {
			return nil, fmt.Errorf("decoding task %s: %w", t.ID, err)
		}
		t.LaneID = lane
		t.Start = start
		t.Scheduled = true
	}
	return t, nil
}

func encodeLane(l *sched.Lane) ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}
	set("id", l.ID)
	set("name", l.Name)
	set("capacity", l.Capacity)
	set("color", l.Color)
	if err != nil {
		return nil, fmt.Errorf("encoding lane %s: %w", l.ID, err)
	}
	return doc, nil
}

func decodeLane(doc []byte) *sched.Lane {
	return &sched.Lane{
		ID:       gjson.GetBytes(doc, "id").String(),
		Name:     gjson.GetBytes(doc, "name").String(),
		Capacity: int(gjson.GetBytes(doc, "capacity").Int()),
		Color:    gjson.GetBytes(doc, "color").String(),
	}
}

func encodeDep(d *sched.Dependency) ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}
	set("id", d.ID)
	set("from", d.From)
	set("to", d.To)
	set("lagMinutes", int(d.Lag/time.Minute))
	if err != nil {
		return nil, fmt.Errorf("encoding dependency %s: %w", d.ID, err)
	}
	return doc, nil
}

func decodeDep(doc []byte) *sched.Dependency {
	return &sched.Dependency{
		ID:   gjson.GetBytes(doc, "id").String(),
		From: gjson.GetBytes(doc, "from").String(),
		To:   gjson.GetBytes(doc, "to").String(),
		Lag:  time.Duration(gjson.GetBytes(doc, "lagMinutes").Int()) * time.Minute,
	}
}
