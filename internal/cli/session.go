package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mrz1836/satsend/internal/cache"
	"github.com/mrz1836/satsend/internal/chain/btc"
	"github.com/mrz1836/satsend/internal/utxostore"
	"github.com/mrz1836/satsend/internal/wallet"
)

// commandTimeout bounds the network work of a single command.
const commandTimeout = 60 * time.Second

// commandContext returns the context for one command invocation.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// session bundles the collaborators a wallet-scoped command needs.
type session struct {
	wallet   *wallet.Wallet
	seed     []byte // second-password layer still applied when double encrypted
	storage  wallet.Storage
	client   *btc.Client
	params   *chaincfg.Params
	balances *cache.BalanceCache
	spent    *utxostore.Store
	manager  *wallet.Manager
}

// chainParams maps the configured network name to chain parameters.
func chainParams(network string) *chaincfg.Params {
	if network == "testnet" {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// newClient builds the explorer client from configuration.
func newClient(params *chaincfg.Params) *btc.Client {
	cfg := Config()
	return btc.NewClient(&btc.ClientOptions{
		BaseURL: cfg.Explorer.API,
		APIKey:  cfg.Explorer.APIKey,
		Params:  params,
	})
}

// openSession prompts for the wallet password, loads the wallet, and wires
// the client, caches, and account manager. The caller must call close.
func openSession(walletName string) (*session, error) {
	storage := wallet.NewFileStorage(Config().WalletsDir())

	password, err := promptPassword("Enter wallet password: ")
	if err != nil {
		return nil, err
	}
	defer wallet.ZeroBytes(password)

	w, seed, err := storage.Load(walletName, password)
	if err != nil {
		return nil, err
	}

	params := chainParams(Config().Network)
	client := newClient(params)
	balances := cache.NewBalanceCache()

	spent := utxostore.New(filepath.Join(Config().WalletsDir(), walletName))
	if err := spent.Load(); err != nil {
		logger.Error("loading spent outputs: %v", err)
	}

	manager := wallet.NewManager(w, storage, params, client, &cacheRefresher{balances: balances})

	return &session{
		wallet:   w,
		seed:     seed,
		storage:  storage,
		client:   client,
		params:   params,
		balances: balances,
		spent:    spent,
		manager:  manager,
	}, nil
}

// close zeros the seed payload.
func (s *session) close() {
	wallet.ZeroBytes(s.seed)
	s.seed = nil
}

// keyring opens the signing keyring, prompting for the second password
// when the wallet is double encrypted.
func (s *session) keyring() (*wallet.Keyring, error) {
	secondPassword := ""
	if s.wallet.DoubleEncrypted {
		pw, err := promptSecondPassword()
		if err != nil {
			return nil, err
		}
		secondPassword = pw
	}
	return wallet.NewKeyring(s.wallet, s.seed, secondPassword, s.params)
}

// cacheRefresher implements wallet.BalanceRefresher by dropping cached
// balances; the next read fetches fresh.
type cacheRefresher struct {
	balances *cache.BalanceCache
}

// ForceRefresh implements wallet.BalanceRefresher.
func (r *cacheRefresher) ForceRefresh(_ context.Context) {
	r.balances.Clear()
}
