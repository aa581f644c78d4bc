// Package streaming defines the websocket envelope protocol used to stream a
// run journal to a remote collector.
package streaming

import (
	"encoding/json"

	"github.com/moonfall/colonysim/pkg/core"
)

// Message types. Journal kinds reuse the core event kinds.
const (
	TypeStartRun    = "start_run"
	TypeEndRun      = "end_run"
	TypeStateChange = core.KindStateChange
	TypeBattle      = core.KindBattle
	TypeAttack      = core.KindAttack
	TypeDeath       = core.KindDeath
	TypeLoot        = core.KindLoot
	TypeFeeding     = core.KindFeeding
	TypeDaySummary  = core.KindDaySummary
	TypeAck         = "ack"
)

// Types lists every message type a client may send.
var Types = []string{
	TypeStartRun, TypeEndRun,
	TypeStateChange, TypeBattle, TypeAttack, TypeDeath, TypeLoot, TypeFeeding, TypeDaySummary,
}

// Envelope wraps all messages sent over the websocket. Seq increases by one
// per message within a connection's lifetime and restarts on reconnect.
type Envelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRunPayload opens a run on the collector.
type StartRunPayload struct {
	Run *core.Run `json:"run"`
}

// EndRunPayload closes it.
type EndRunPayload struct {
	Summary *core.RunSummary `json:"summary"`
}

// EnvelopeSchema is the JSON schema of Envelope, published for collectors.
const EnvelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "seq", "payload"],
  "additionalProperties": false,
  "properties": {
    "type": {
      "enum": ["start_run", "end_run", "state_change", "battle", "attack", "death", "loot", "feeding", "day_summary"]
    },
    "seq": {"type": "integer", "minimum": 1},
    "payload": {"type": ["object", "null"]}
  }
}`
