package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func (p *Printer) writeYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	_, err = p.options.Writer.Write(data)
	return err
}
