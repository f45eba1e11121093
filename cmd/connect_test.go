package cmd

import "testing"

func TestResolveConnectBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		insecure bool
		want     string
		wantErr  bool
	}{
		{name: "loopback host:port uses http", target: "127.0.0.1:1750", want: "http://127.0.0.1:1750"},
		{name: "localhost uses http", target: "localhost:1750", want: "http://localhost:1750"},
		{name: "remote host defaults to https", target: "mail.example.com:1750", want: "https://mail.example.com:1750"},
		{name: "remote host with insecure flag", target: "10.0.0.5:1750", insecure: true, want: "http://10.0.0.5:1750"},
		{name: "explicit https kept", target: "https://mail.example.com:8443/ignored", want: "https://mail.example.com:8443"},
		{name: "explicit http loopback", target: "http://[::1]:1750", want: "http://[::1]:1750"},
		{name: "explicit http remote refused", target: "http://mail.example.com:1750", wantErr: true},
		{name: "explicit http remote allowed", target: "http://mail.example.com:1750", insecure: true, want: "http://mail.example.com:1750"},
		{name: "unsupported scheme", target: "ftp://127.0.0.1:1750", wantErr: true},
		{name: "missing host", target: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveConnectBaseURL(tt.target, tt.insecure)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsLoopbackHost(t *testing.T) {
	for host, want := range map[string]bool{
		"":            false,
		"localhost":   true,
		"LOCALHOST":   true,
		"127.0.0.1":   true,
		"127.1.2.3":   true,
		"::1":         true,
		"10.0.0.1":    false,
		"example.com": false,
	} {
		if got := isLoopbackHost(host); got != want {
			t.Errorf("isLoopbackHost(%q) = %v, want %v", host, got, want)
		}
	}
}
