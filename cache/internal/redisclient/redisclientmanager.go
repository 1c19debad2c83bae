// Package redisclient builds shared go-redis v9 clients from startup config.
package redisclient

import (
	"crypto/tls"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
	"github.com/magic-lib/go-plat-utils/conv"
	"github.com/magic-lib/go-plat-utils/syncx"
	red "github.com/redis/go-redis/v9"
)

const (
	// ClusterType means redis cluster.
	ClusterType = "cluster"
	// NodeType means redis node.
	NodeType = "node"

	addrSep    = ","
	maxRetries = 3
	idleConns  = 8
)

var (
	clientManager  = syncx.NewResourceManager()
	clusterManager = syncx.NewResourceManager()

	nodePoolSize = 10 * runtime.GOMAXPROCS(0)
)

// Cmdable returns a client for r, shared by every caller with the same
// datasource name. An empty Type is treated as a single node.
func Cmdable(r *startupcfg.RedisConfig) (red.Cmdable, error) {
	if r == nil {
		return nil, fmt.Errorf("redis config is nil")
	}
	switch r.Type {
	case ClusterType:
		return getCluster(r)
	case NodeType, "":
		return getClient(r)
	default:
		return nil, fmt.Errorf("redis type '%s' is not supported", r.Type)
	}
}

func tlsConfig(r *startupcfg.RedisConfig) *tls.Config {
	if !r.TLS {
		return nil
	}
	return &tls.Config{
		InsecureSkipVerify: true,
	}
}

func getClient(r *startupcfg.RedisConfig) (*red.Client, error) {
	val, err := clientManager.GetResource(r.DatasourceName(), func() (io.Closer, error) {
		db, _ := conv.Convert[int64](r.DatabaseName())
		return red.NewClient(&red.Options{
			Addr:         r.ServerAddress(),
			Username:     r.User(),
			Password:     r.Password(),
			DB:           int(db),
			MaxRetries:   maxRetries,
			PoolSize:     nodePoolSize,
			MinIdleConns: idleConns,
			TLSConfig:    tlsConfig(r),
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*red.Client), nil
}

func getCluster(r *startupcfg.RedisConfig) (*red.ClusterClient, error) {
	val, err := clusterManager.GetResource(r.DatasourceName(), func() (io.Closer, error) {
		return red.NewClusterClient(&red.ClusterOptions{
			Addrs:        splitClusterAddrs(r.ServerAddress()),
			Username:     r.User(),
			Password:     r.Password(),
			MaxRetries:   maxRetries,
			MinIdleConns: idleConns,
			TLSConfig:    tlsConfig(r),
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*red.ClusterClient), nil
}

func splitClusterAddrs(addr string) []string {
	seen := make(map[string]struct{})
	addrs := make([]string, 0)
	for _, each := range strings.Split(addr, addrSep) {
		each = strings.TrimSpace(each)
		if each == "" {
			continue
		}
		if _, ok := seen[each]; ok {
			continue
		}
		seen[each] = struct{}{}
		addrs = append(addrs, each)
	}
	return addrs
}
