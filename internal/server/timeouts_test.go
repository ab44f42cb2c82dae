package server

import (
	"net/http"
	"testing"
	"time"
)

func TestNew_Timeouts(t *testing.T) {
	s := New(":0", http.NotFoundHandler(), Timeouts{Write: 5 * time.Second})
	if s.ReadTimeout != DefaultReadTimeout || s.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("defaults not applied: read=%v idle=%v", s.ReadTimeout, s.IdleTimeout)
	}
	if s.WriteTimeout != 5*time.Second {
		t.Errorf("WriteTimeout = %v", s.WriteTimeout)
	}
	if s.Addr != ":0" || s.Handler == nil {
		t.Error("addr or handler lost")
	}
}
