package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env     string
	Server  server
	Buffer  buf
	IPFS    ipfs
	Fabric  fabric
	Crypto  crypt
	Journal journal
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type buf struct {
	SnapshotPath string        `env:"SNAPSHOT_PATH"`
	PollInterval time.Duration `env:"POLL_INTERVAL_SECONDS"`
}

type ipfs struct {
	ClusterAPIURL string `env:"IPFS_CLUSTER_API_URL"`
	GatewayURL    string `env:"IPFS_GATEWAY_URL"`
}

type fabric struct {
	PeerEndpoint  string `env:"FABRIC_PEER_ENDPOINT"`
	PeerHostAlias string `env:"FABRIC_PEER_ALIAS"`
	MSPID         string `env:"FABRIC_MSPID"`
	ChannelName   string `env:"FABRIC_CHANNEL_NAME"`
	ChaincodeName string `env:"FABRIC_CHAINCODE_NAME"`
	TLSCertPath   string `env:"FABRIC_TLS_CERT_PATH"`
	CertPath      string `env:"FABRIC_CERT_PATH"`
	KeyDirPath    string `env:"FABRIC_KEY_PATH"`
}

type crypt struct {
	CipherMode string `env:"CIPHER_MODE"`
}

type journal struct {
	Path string `env:"JOURNAL_PATH"`
}

// NewConfig resolves runtime parameters from the environment, falling back
// to defaults matching a single-org local Fabric test network.
func NewConfig() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()

	viper.SetDefault("run_address", ":7500")
	viper.SetDefault("snapshot_path", "./localStorage.json")
	viper.SetDefault("poll_interval_seconds", 10)
	viper.SetDefault("ipfs_cluster_api_url", "http://localhost:9094")
	viper.SetDefault("ipfs_gateway_url", "http://localhost:8080")
	viper.SetDefault("fabric_peer_endpoint", "localhost:7051")
	viper.SetDefault("fabric_peer_alias", "peer0.org1.fabrictest.com")
	viper.SetDefault("fabric_mspid", "Org1MSP")
	viper.SetDefault("fabric_channel_name", "mychannel")
	viper.SetDefault("fabric_chaincode_name", "ipfscc")
	viper.SetDefault("fabric_tls_cert_path", "organizations/peerOrganizations/org1.fabrictest.com/peers/peer0.org1.fabrictest.com/tls/ca.crt")
	viper.SetDefault("fabric_cert_path", "organizations/peerOrganizations/org1.fabrictest.com/users/User1@org1.fabrictest.com/msp/signcerts/User1@org1.fabrictest.com-cert.pem")
	viper.SetDefault("fabric_key_path", "organizations/peerOrganizations/org1.fabrictest.com/users/User1@org1.fabrictest.com/msp/keystore")
	viper.SetDefault("cipher_mode", "ecb")
	viper.SetDefault("journal_path", "./pendingUploads.db")

	config := Config{
		Env: viper.GetString("app_env"),
		Server: server{
			RunAddress: viper.GetString("run_address"),
		},
		Buffer: buf{
			SnapshotPath: viper.GetString("snapshot_path"),
			PollInterval: time.Duration(viper.GetInt("poll_interval_seconds")) * time.Second,
		},
		IPFS: ipfs{
			ClusterAPIURL: viper.GetString("ipfs_cluster_api_url"),
			GatewayURL:    viper.GetString("ipfs_gateway_url"),
		},
		Fabric: fabric{
			PeerEndpoint:  viper.GetString("fabric_peer_endpoint"),
			PeerHostAlias: viper.GetString("fabric_peer_alias"),
			MSPID:         viper.GetString("fabric_mspid"),
			ChannelName:   viper.GetString("fabric_channel_name"),
			ChaincodeName: viper.GetString("fabric_chaincode_name"),
			TLSCertPath:   viper.GetString("fabric_tls_cert_path"),
			CertPath:      viper.GetString("fabric_cert_path"),
			KeyDirPath:    viper.GetString("fabric_key_path"),
		},
		Crypto: crypt{
			CipherMode: viper.GetString("cipher_mode"),
		},
		Journal: journal{
			Path: viper.GetString("journal_path"),
		},
	}

	return &config
}
