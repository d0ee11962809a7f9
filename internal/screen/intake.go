package screen

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/AaronLay10/SentientUI/internal/events"
)

// Intake is the single entry point for screens pushed to the host, whatever the
// transport. It validates, checks the protocol range and stores.
type Intake struct {
	validator *Validator
	accept    *semver.Constraints
	store     *Store
}

// NewIntake creates an intake writing to store. accept is a semver constraint;
// empty means DefaultAccept.
func NewIntake(store *Store, validator *Validator, accept string) (*Intake, error) {
	c, err := ParseAccept(accept)
	if err != nil {
		return nil, err
	}
	return &Intake{
		validator: validator,
		accept:    c,
		store:     store,
	}, nil
}

// Accept processes one raw envelope. source names the transport for the event log.
func (in *Intake) Accept(data []byte, source string) (*Envelope, error) {
	env, err := in.admit(data)
	if err != nil {
		events.Emit("warn", "screen.rejected", err.Error(), map[string]interface{}{
			"source": source,
		})
		return nil, err
	}

	events.Emit("info", "screen.received", "", map[string]interface{}{
		"source":           source,
		"screen_id":        env.Screen.ID,
		"protocol_version": env.ProtocolVersion,
		"sections":         len(env.Screen.Sections),
	})
	return env, nil
}

func (in *Intake) admit(data []byte) (*Envelope, error) {
	if in.validator != nil {
		if err := in.validator.Validate(data); err != nil {
			return nil, err
		}
	}
	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if err := CheckProtocol(in.accept, env.ProtocolVersion); err != nil {
		return nil, fmt.Errorf("screen %s: %w", env.Screen.ID, err)
	}
	if err := in.store.Put(env); err != nil {
		return nil, err
	}
	return env, nil
}

// Store returns the backing store.
func (in *Intake) Store() *Store {
	return in.store
}
