package fetch

import (
	"net/http"
	"testing"
)

func TestLooksLikeCloudflare(t *testing.T) {
	h := func(kv ...string) http.Header {
		hdr := http.Header{}
		for i := 0; i < len(kv); i += 2 {
			hdr.Set(kv[i], kv[i+1])
		}
		return hdr
	}

	cases := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   bool
	}{
		{"server header", 200, h("Server", "cloudflare"), "", true},
		{"cf-ray header", 200, h("Cf-Ray", "8a1b2c3d"), "", true},
		{"status 403", 403, h(), "", true},
		{"status 409", 409, h(), "", true},
		{"status 429", 429, h(), "", true},
		{"status 503", 503, h(), "", true},
		{"body phrase", 200, h(), "<title>Just a Moment...</title>", true},
		{"clean 200", 200, h("Server", "nginx"), "<html><body>ok</body></html>", false},
		{"clean 404", 404, h(), "not found", false},
	}
	for _, c := range cases {
		if got := LooksLikeCloudflare(c.status, c.header, c.body); got != c.want {
			t.Errorf("%s: LooksLikeCloudflare = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestLooksLikeChallenge(t *testing.T) {
	manyLinks := `<html><body><a href=1></a><a href=2></a><a href=3></a></body></html>`
	scriptShell := `<html><script>1</script><script>2</script><script>3</script><a href=1></a></html>`

	cases := []struct {
		name string
		html string
		want bool
	}{
		{"empty", "", true},
		{"cf phrase", "<html>Checking your browser before accessing example.pl</html>", true},
		{"script shell", scriptShell, true},
		{"noscript", "<html><noscript>enable js</noscript><body></body></html>", true},
		{"normal page", manyLinks, false},
	}
	for _, c := range cases {
		if got := LooksLikeChallenge(c.html); got != c.want {
			t.Errorf("%s: LooksLikeChallenge = %v, want %v", c.name, got, c.want)
		}
	}
}
