package api

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

const requestSchema = `
#Row: {
	star_id:  string | number
	time:     number
	flux:     number
	flux_err: number & >=0
	teff?:    number | null
	radius?:  number | null
	mass?:    number | null
	logg?:    number | null
	feh?:     number | null
	label?:   0 | 1 | null
	...
}

#Request: {
	data: [...#Row]
	...
}
`

// validator checks request bodies against a CUE schema. A cue.Context is not
// safe for concurrent use, so calls are serialized.
type validator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	request cue.Value
}

func newValidator() *validator {
	ctx := cuecontext.New()
	schema := ctx.CompileString(requestSchema)
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("compile request schema: %v", err))
	}
	return &validator{ctx: ctx, request: schema.LookupPath(cue.ParsePath("#Request"))}
}

// Validate returns the first schema violation of body, if any.
func (v *validator) Validate(body []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	val := v.ctx.CompileBytes(body)
	if err := val.Err(); err != nil {
		return fmt.Errorf("invalid JSON: %s", firstError(err))
	}
	if err := v.request.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", firstError(err))
	}
	return nil
}

func firstError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}
