package pkg

import (
	"github.com/ecopia-map/svosdf/internal/converter"
)

type IConverter interface {
	Run(opts *converter.ConverterOptions) error
}
