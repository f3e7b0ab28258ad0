package analyzing

import "errors"

// ErrNotAllowed indica que a identidade da sessão não pode executar a
// operação. Mutações rejeitadas não têm efeito algum sobre o conjunto.
var ErrNotAllowed = errors.New("operação não permitida para o papel da sessão")
