package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/nexus-receiver/internal/config"
)

// formError is a problem with the submitted form, reported as 400.
type formError struct{ msg string }

func (e formError) Error() string { return e.msg }

func (s *Server) handleConfigForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := renderConfig(w, configPage{
		Config: s.store.Get(),
		Path:   s.store.Path(),
		Saved:  r.URL.Query().Get("saved") == "1",
	})
	if err != nil {
		s.logger.Error("render config page", "err", err)
	}
}

func (s *Server) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := s.store.Update(func(c *config.Config) error {
		return applyForm(c, r)
	})
	var fe formError
	switch {
	case err == nil:
	case errors.As(err, &fe), errors.Is(err, config.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		s.logger.Error("save config", "err", err)
		http.Error(w, "could not save config", http.StatusInternalServerError)
		return
	}

	s.logger.Info("config saved from portal", "path", s.store.Path())
	http.Redirect(w, r, "/config?saved=1", http.StatusSeeOther)
}

func (s *Server) handleConfigReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(); err != nil {
		s.logger.Error("reset config", "err", err)
		http.Error(w, "could not reset config", http.StatusInternalServerError)
		return
	}
	s.logger.Info("config reset to defaults", "path", s.store.Path())
	http.Redirect(w, r, "/config?saved=1", http.StatusSeeOther)
}

// applyForm copies submitted fields onto c. Absent fields keep their value.
func applyForm(c *config.Config, r *http.Request) error {
	str := func(key string, dst *string) {
		if v, ok := r.PostForm[key]; ok {
			*dst = strings.TrimSpace(v[0])
		}
	}
	dur := func(key string, dst *config.Duration) error {
		v, ok := r.PostForm[key]
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v[0]))
		if err != nil {
			return formError{fmt.Sprintf("%s: %q is not a duration", key, v[0])}
		}
		*dst = config.Duration(d)
		return nil
	}

	str("gpio_chip", &c.GPIO.Chip)
	if v, ok := r.PostForm["gpio_pin"]; ok {
		pin, err := strconv.Atoi(strings.TrimSpace(v[0]))
		if err != nil {
			return formError{fmt.Sprintf("gpio_pin: %q is not a number", v[0])}
		}
		c.GPIO.Pin = pin
	}
	str("mqtt_broker", &c.MQTT.Broker)
	str("mqtt_client_id", &c.MQTT.ClientID)
	str("mqtt_topic", &c.MQTT.Topic)
	str("http_addr", &c.HTTP.Addr)
	str("log_level", &c.Log.Level)
	str("log_format", &c.Log.Format)

	for key, dst := range map[string]*config.Duration{
		"poll":        &c.Poll,
		"heartbeat":   &c.Heartbeat,
		"stale_after": &c.StaleAfter,
		"dedup":       &c.Dedup,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	// Unchecked boxes are not submitted, so the hidden marker field says
	// the form carried the checkbox at all.
	if _, ok := r.PostForm["simulate_present"]; ok {
		c.Simulate.Enabled = r.PostForm.Get("simulate") == "on"
	}
	return nil
}
