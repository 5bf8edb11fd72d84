package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceInstanceKey(t *testing.T) {
	inst := &ServiceInstance{Name: "storefront", Host: "10.0.0.4", Port: 8080}

	assert.Equal(t, "/services/storefront/10.0.0.4:8080", inst.Key("/services/"))
	assert.Equal(t, "10.0.0.4:8080", inst.Addr())
}
