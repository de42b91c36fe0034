// Package mongosrc loads device definitions from a MongoDB collection.
//
// Each document is a [device.Spec] encoded with its bson tags:
//
//	{
//	  "name": "lab_t5",
//	  "qubits": [{"index": 0, "readout_error": 0.021, "gate_error": 0.0003}, ...],
//	  "couplings": [{"a": 0, "b": 1, "error": 0.009}, ...]
//	}
//
// Calibration snapshots are fetched once per call to [Source.Catalog]; the
// ranking pipeline never touches the database while matching.
package mongosrc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/qmap/pkg/device"
	errs "github.com/matzehuels/qmap/pkg/errors"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultDatabase   = "qmap"
	DefaultCollection = "devices"
	DefaultTimeout    = 10 * time.Second
)

// Config locates the device collection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Source reads and writes device specs in one collection.
type Source struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// Open connects to MongoDB and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.URI == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Source{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: cfg.Timeout,
	}, nil
}

// Close disconnects the client.
func (s *Source) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Catalog loads every device in the collection, sorted by name.
func (s *Source) Catalog(ctx context.Context) (*device.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find devices: %w", err)
	}
	var specs []device.Spec
	if err := cur.All(ctx, &specs); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	return FromSpecs(specs)
}

// Get loads one device by name.
func (s *Source) Get(ctx context.Context, name string) (*device.Static, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var spec device.Spec
	err := s.coll.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&spec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.New(errs.ErrCodeDeviceNotFound, "device %q not in collection %s", name, s.coll.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("find device %s: %w", name, err)
	}
	return spec.Build()
}

// Put inserts or replaces the device with the same name.
func (s *Source) Put(ctx context.Context, d device.Device) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	spec := device.SpecOf(d)
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "name", Value: spec.Name}},
		spec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert device %s: %w", spec.Name, err)
	}
	return nil
}

// FromSpecs builds a catalog, failing on the first invalid spec.
func FromSpecs(specs []device.Spec) (*device.Catalog, error) {
	cat, _ := device.NewCatalog()
	for _, sp := range specs {
		d, err := sp.Build()
		if err != nil {
			return nil, err
		}
		if err := cat.Add(d); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// DecodeSpec converts a raw BSON document into a Spec.
func DecodeSpec(raw bson.Raw) (device.Spec, error) {
	var spec device.Spec
	if err := bson.Unmarshal(raw, &spec); err != nil {
		return device.Spec{}, errs.Wrap(errs.ErrCodeInvalidDevice, err, "decode device document")
	}
	return spec, nil
}
