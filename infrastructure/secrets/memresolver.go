package secrets

import (
	"context"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// MemResolver is a fixed-map Resolver used by tests and local runs.
type MemResolver map[string]Credentials

// Resolve implements Resolver.
func (m MemResolver) Resolve(_ context.Context, secretRef string) (Credentials, error) {
	creds, ok := m[secretRef]
	if !ok {
		return Credentials{}, svcerr.New(svcerr.CodeConfiguration, "no credentials for secretRef: "+secretRef)
	}
	return creds, nil
}
