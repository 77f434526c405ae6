package printing

import (
	"regexp"
	"strings"
)

// parseLpstat reads `lpstat -p -d` output. Printer lines look like
//
//	printer Brother_HL_L2350DW is idle.  enabled since ...
//	printer Deskjet now printing Deskjet-42.
//	printer Old disabled since Tue 07 Jan ...
//	system default destination: Brother_HL_L2350DW
func parseLpstat(out string) []Printer {
	var printers []Printer
	defaultName := ""

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "printer "):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			p := Printer{Name: fields[1], State: StateUnknown}
			rest := strings.Join(fields[2:], " ")
			switch {
			case strings.Contains(rest, "is idle"):
				p.State = StateIdle
			case strings.Contains(rest, "printing"):
				p.State = StatePrinting
			case strings.Contains(rest, "disabled"):
				p.State = StateStopped
			}
			printers = append(printers, p)
		case strings.HasPrefix(line, "system default destination:"):
			defaultName = strings.TrimSpace(strings.TrimPrefix(line, "system default destination:"))
		}
	}
	for i := range printers {
		printers[i].IsDefault = printers[i].Name == defaultName
	}
	return printers
}

// parseLpoptions reads `lpoptions -p X -l` output. Each line is
//
//	Keyword/Human Label: choice1 *defaultChoice choice3
func parseLpoptions(out string) []Option {
	var opts []Option
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		head := line[:colon]
		keyword, label := head, head
		if slash := strings.Index(head, "/"); slash >= 0 {
			keyword = head[:slash]
			label = head[slash+1:]
		}
		opt := Option{Keyword: strings.TrimSpace(keyword), Label: strings.TrimSpace(label)}
		for _, choice := range strings.Fields(line[colon+1:]) {
			if strings.HasPrefix(choice, "*") {
				choice = choice[1:]
				opt.Default = choice
			}
			opt.Choices = append(opt.Choices, choice)
		}
		if opt.Keyword != "" {
			opts = append(opts, opt)
		}
	}
	return opts
}

var jobIDRe = regexp.MustCompile(`request id is (\S+)`)

// parseJobID extracts the job id from lp output, e.g.
//
//	request id is Brother_HL_L2350DW-127 (1 file(s))
func parseJobID(out string) (string, bool) {
	m := jobIDRe.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	return m[1], true
}
