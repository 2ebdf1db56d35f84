package service

import (
	"sort"
	"strconv"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

// statusVars builds the server status sent on DO MSSP.
func (s *Service) statusVars() []telnet.StatusVar {
	st := s.config.Status
	port := st.Port
	if port == 0 {
		for _, l := range s.listeners {
			if !l.TLS() {
				port = transport.PortOf(l.Addr())
				break
			}
		}
	}

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	vars := []telnet.StatusVar{
		{Name: "NAME", Values: []string{st.Name}},
		{Name: "PLAYERS", Values: []string{strconv.Itoa(s.Players())}},
		{Name: "UPTIME", Values: []string{strconv.FormatInt(started.Unix(), 10)}},
	}
	optional := []struct{ name, value string }{
		{"CODEBASE", st.Codebase},
		{"CONTACT", st.Contact},
		{"WEBSITE", st.Website},
		{"LANGUAGE", st.Language},
	}
	for _, o := range optional {
		if o.value != "" {
			vars = append(vars, telnet.StatusVar{Name: o.name, Values: []string{o.value}})
		}
	}
	if port != 0 {
		vars = append(vars, telnet.StatusVar{Name: "PORT", Values: []string{strconv.Itoa(port)}})
	}
	for _, l := range s.listeners {
		if l.TLS() {
			vars = append(vars, telnet.StatusVar{Name: "SSL", Values: []string{strconv.Itoa(transport.PortOf(l.Addr()))}})
		}
	}

	flag := func(on bool) string {
		if on {
			return "1"
		}
		return "0"
	}
	vars = append(vars,
		telnet.StatusVar{Name: "ANSI", Values: []string{"1"}},
		telnet.StatusVar{Name: "UTF-8", Values: []string{flag(s.config.OfferUTF8)}},
		telnet.StatusVar{Name: "MCCP", Values: []string{flag(s.config.Compression)}},
		telnet.StatusVar{Name: "MSDP", Values: []string{flag(s.catalog != nil)}},
		telnet.StatusVar{Name: "MXP", Values: []string{flag(s.config.Markup)}},
		telnet.StatusVar{Name: "MSP", Values: []string{flag(s.config.Sound)}},
	)

	keys := make([]string, 0, len(st.Extra))
	for k := range st.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vars = append(vars, telnet.StatusVar{Name: k, Values: []string{st.Extra[k]}})
	}
	return vars
}
