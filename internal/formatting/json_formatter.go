package formatting

import (
	"encoding/json"
	"fmt"
)

func (p *Printer) writeJSON(v any) error {
	if !p.options.Quiet {
		_, err := fmt.Fprintln(p.options.Writer, PrettyJSON(v))
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	_, err = fmt.Fprintln(p.options.Writer, string(data))
	return err
}
