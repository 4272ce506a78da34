package executor

import (
	"net/url"
	"strings"

	"github.com/passage-org/passage-complete/pkg/errors"
)

var endpointSuffixes = []string{"/passage", "/sparql"}

// RawEndpoint derives the statistics endpoint from a query endpoint by
// replacing a trailing /passage or /sparql path segment with /raw. Other
// URLs are returned unchanged.
func RawEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "invalid endpoint %q", endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Newf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	path := strings.TrimSuffix(u.Path, "/")
	for _, suffix := range endpointSuffixes {
		if strings.HasSuffix(path, suffix) {
			u.Path = strings.TrimSuffix(path, suffix) + "/raw"
			return u.String(), nil
		}
	}
	return endpoint, nil
}
