package types

import (
	"fmt"
	"sort"
	"strings"
)

// CreditsProgram is the program whose records carry native credits.
const CreditsProgram = "credits.aleo"

// RecordPlaintext is a decrypted record.
type RecordPlaintext struct {
	Owner        Address           `json:"owner"`
	Microcredits uint64            `json:"microcredits"`
	Data         map[string]string `json:"data,omitempty"`
	Nonce        string            `json:"_nonce"`
}

// String renders the record the way the node's tooling prints plaintexts.
func (r *RecordPlaintext) String() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	fmt.Fprintf(&sb, "  owner: %s.private,\n", r.Owner)
	fmt.Fprintf(&sb, "  microcredits: %du64.private,\n", r.Microcredits)

	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %s: %s,\n", k, r.Data[k])
	}

	fmt.Fprintf(&sb, "  _nonce: %sgroup.public\n", r.Nonce)
	sb.WriteString("}")
	return sb.String()
}
