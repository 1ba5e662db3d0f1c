package chaincfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByNetworkReturnsRegisteredDefaults(t *testing.T) {
	p, err := ByNetwork(Main)
	require.NoError(t, err)
	require.Same(t, &MainNetParams, p)

	_, err = ByNetwork(Network(99))
	require.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestEveryNetworkHasNoDeploymentsByDefault(t *testing.T) {
	for _, p := range []*Params{&MainNetParams, &TestNetParams, &RegtestParams, &SimNetParams} {
		require.Empty(t, p.Deployments)
	}
}

func TestRegisterAddsCustomNetwork(t *testing.T) {
	custom := &Params{Name: Network(1000), MinerConfirmationWindow: 10}
	Register(Network(1000), custom)
	p, err := ByNetwork(Network(1000))
	require.NoError(t, err)
	require.Same(t, custom, p)
}

func TestNetworkStringNames(t *testing.T) {
	require.Equal(t, "main", Main.String())
	require.Equal(t, "testnet", Testnet.String())
	require.Equal(t, "regtest", Regtest.String())
	require.Equal(t, "simnet", Simnet.String())
	require.Equal(t, "unknown", Network(99).String())
}
