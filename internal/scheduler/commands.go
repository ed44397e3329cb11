package scheduler

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/notifier"
)

// HandleCommand processes a user command and returns a reply formatted for
// Telegram HTML mode.
func (s *Scheduler) HandleCommand(command string) string {
	reply, err := s.handle(command)
	if err != nil {
		return html.EscapeString(err.Error())
	}
	return reply
}

// handle returns an HTML reply, or an error whose plain text is shown to
// the user.
func (s *Scheduler) handle(command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(), nil
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "/status":
		if len(args) == 0 {
			return s.statusAll(), nil
		}
		inst, err := model.ParseInstrument(args[0])
		if err != nil {
			return "", err
		}
		return s.status(inst), nil

	case "/reset":
		if len(args) != 1 {
			return "", errors.New("usage: /reset <INST>")
		}
		inst, err := model.ParseInstrument(args[0])
		if err != nil {
			return "", err
		}
		s.ResetInstrument(inst)
		return fmt.Sprintf("♻️ %s state cleared", inst), nil

	case "/resetall":
		s.ResetAll()
		return "♻️ all instrument state cleared", nil

	case "/strike":
		if len(args) != 2 {
			return "", errors.New("usage: /strike <INST> <price|none>")
		}
		inst, err := model.ParseInstrument(args[0])
		if err != nil {
			return "", err
		}
		sel, err := parseSelection(args[1])
		if err != nil {
			return "", err
		}
		if err := s.SetSelection(inst, sel); err != nil {
			return "", err
		}
		return fmt.Sprintf("🎯 %s strike set to %s", inst, sel), nil

	case "/range":
		if len(args) != 2 {
			return "", errors.New("usage: /range <INST> <5|10>")
		}
		inst, err := model.ParseInstrument(args[0])
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("invalid strike range %q (use 5 or 10)", args[1])
		}
		rng, err := model.ParseStrikeRange(n)
		if err != nil {
			return "", err
		}
		if err := s.SetRange(inst, rng); err != nil {
			return "", err
		}
		return fmt.Sprintf("📏 %s range set to ATM±%d", inst, rng), nil

	default:
		return notifier.FormatHelp(), nil
	}
}

func (s *Scheduler) status(inst model.Instrument) string {
	if _, ok := s.Target(inst); !ok {
		return fmt.Sprintf("instrument %s is not polled", inst)
	}
	resp, ok := s.Latest(inst)
	if !ok {
		return fmt.Sprintf("⏳ no analysis for %s yet", inst)
	}
	return notifier.FormatStatus(resp)
}

func (s *Scheduler) statusAll() string {
	parts := make([]string, 0, len(s.order))
	for _, inst := range s.Instruments() {
		parts = append(parts, s.status(inst))
	}
	return strings.Join(parts, "\n\n")
}

func parseSelection(arg string) (model.StrikeSelection, error) {
	if strings.EqualFold(arg, "none") {
		return model.NoStrike(), nil
	}
	price, err := strconv.ParseFloat(arg, 64)
	if err != nil || !(price > 0) {
		return model.StrikeSelection{}, fmt.Errorf("invalid strike %q (use a positive price or none)", arg)
	}
	return model.SelectStrike(price), nil
}
