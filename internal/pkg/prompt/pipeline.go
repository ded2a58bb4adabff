package prompt

import "fmt"

// Prompt is anything that turns variables into a Value
type Prompt interface {
	InputVariables() []string
	Invoke(values map[string]any) (Value, error)
}

// Step renders Prompt and stores its text under Name
type Step struct {
	Name   string
	Prompt Prompt
}

// Pipeline formats steps in order, each seeing the variables and the output
// of earlier steps, then formats Final with all of them
type Pipeline struct {
	Final Prompt
	Steps []Step
}

// InputVariables returns the variables not produced by a step
func (p *Pipeline) InputVariables() []string {
	produced := make(map[string]any, len(p.Steps))
	var names []string
	for _, s := range p.Steps {
		for _, n := range s.Prompt.InputVariables() {
			if _, ok := produced[n]; !ok {
				names = append(names, n)
			}
		}
		produced[s.Name] = true
	}
	names = append(names, p.Final.InputVariables()...)
	return unique(names, produced)
}

// Invoke runs the steps and the final prompt
func (p *Pipeline) Invoke(values map[string]any) (Value, error) {
	if missing := missingNames(p.InputVariables(), values); len(missing) > 0 {
		return nil, &MissingVariablesError{Names: missing}
	}

	ctx := mergeValues(nil, values)
	for _, s := range p.Steps {
		v, err := s.Prompt.Invoke(ctx)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name, err)
		}
		ctx[s.Name] = v.String()
	}
	return p.Final.Invoke(ctx)
}
