package types

import "encoding/json"

// Block is a block as served by GET /block/{height} and /blocks.
type Block struct {
	BlockHash     string                 `json:"block_hash"`
	PreviousHash  string                 `json:"previous_hash"`
	Header        Header                 `json:"header"`
	Transactions  []ConfirmedTransaction `json:"transactions"`
	Ratifications json.RawMessage        `json:"ratifications,omitempty"`
	Solutions     json.RawMessage        `json:"solutions,omitempty"`
}

// Header holds the block header fields the client reads.
type Header struct {
	PreviousStateRoot string   `json:"previous_state_root"`
	TransactionsRoot  string   `json:"transactions_root"`
	FinalizeRoot      string   `json:"finalize_root,omitempty"`
	Metadata          Metadata `json:"metadata"`
}

// Metadata carries the height and timing information of a block.
type Metadata struct {
	Network   uint16 `json:"network"`
	Round     uint64 `json:"round"`
	Height    uint64 `json:"height"`
	Timestamp int64  `json:"timestamp"`
}

// Height returns the block height.
func (b *Block) Height() uint64 {
	return b.Header.Metadata.Height
}

// Transaction types.
const (
	TxTypeExecute = "execute"
	TxTypeDeploy  = "deploy"
)

// Confirmed transaction statuses.
const (
	TxStatusAccepted = "accepted"
	TxStatusRejected = "rejected"
)

// ConfirmedTransaction wraps a transaction with its inclusion status.
type ConfirmedTransaction struct {
	Status      string          `json:"status"`
	Type        string          `json:"type"`
	Index       uint32          `json:"index"`
	Transaction Transaction     `json:"transaction"`
	Finalize    json.RawMessage `json:"finalize,omitempty"`
}

// Transaction is an execution or a deployment.
type Transaction struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Execution  *Execution      `json:"execution,omitempty"`
	Deployment json.RawMessage `json:"deployment,omitempty"`
	Owner      json.RawMessage `json:"owner,omitempty"`
	Fee        *Fee            `json:"fee,omitempty"`
}

// Transitions returns the execution transitions followed by the fee
// transition, in the order their outputs were created.
func (tx *Transaction) Transitions() []Transition {
	var out []Transition
	if tx.Execution != nil {
		out = append(out, tx.Execution.Transitions...)
	}
	if tx.Fee != nil && tx.Fee.Transition != nil {
		out = append(out, *tx.Fee.Transition)
	}
	return out
}

// Execution is the body of an execute transaction.
type Execution struct {
	Transitions     []Transition `json:"transitions"`
	GlobalStateRoot string       `json:"global_state_root"`
	Proof           string       `json:"proof,omitempty"`
}

// Fee is the fee paid by a transaction.
type Fee struct {
	Transition      *Transition `json:"transition"`
	GlobalStateRoot string      `json:"global_state_root"`
	Proof           string      `json:"proof,omitempty"`
}

// Transition is a single program function call.
type Transition struct {
	ID       string   `json:"id"`
	Program  string   `json:"program"`
	Function string   `json:"function"`
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	TPK      string   `json:"tpk,omitempty"`
	TCM      string   `json:"tcm,omitempty"`
}

// Input/output value types.
const (
	ValueTypeRecord   = "record"
	ValueTypePublic   = "public"
	ValueTypePrivate  = "private"
	ValueTypeConstant = "constant"
	ValueTypeExternal = "external_record"
	ValueTypeFuture   = "future"
)

// Input is a transition input. Record inputs expose their serial number as ID.
type Input struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Tag   string `json:"tag,omitempty"`
	Value string `json:"value,omitempty"`
}

// Output is a transition output. Record outputs carry the ciphertext in Value.
type Output struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Checksum string `json:"checksum,omitempty"`
	Value    string `json:"value,omitempty"`
}

// IsRecord reports whether the output holds a record ciphertext.
func (o Output) IsRecord() bool {
	return o.Type == ValueTypeRecord && o.Value != ""
}
