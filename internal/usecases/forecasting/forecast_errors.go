package forecasting

import "errors"

// ErrInsufficientData indica que há menos de dois meses distintos de dados.
// Nenhuma projeção é produzida; a série histórica ainda pode ser retornada.
var ErrInsufficientData = errors.New("dados insuficientes para projeção")
