package ingesting

import (
	"errors"
	"fmt"
)

// ErrMalformedInput indica que a entrada bruta não pôde ser normalizada.
// A tentativa de ingestão inteira é descartada; o conjunto canônico
// anterior permanece válido e em uso.
var ErrMalformedInput = errors.New("entrada malformada")

// MalformedInputError carrega o contexto da linha/coluna que falhou
type MalformedInputError struct {
	Line   int    // linha da fonte (1 = cabeçalho)
	Column string // rótulo da coluna envolvida, quando aplicável
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: linha %d, coluna %q: %s", ErrMalformedInput.Error(), e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: linha %d: %s", ErrMalformedInput.Error(), e.Line, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

func newMalformedError(line int, column, reason string) *MalformedInputError {
	return &MalformedInputError{Line: line, Column: column, Reason: reason}
}
