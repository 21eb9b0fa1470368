package initial

import (
	"strconv"
	"testing"

	"ClientPulse/internal/config"
	"ClientPulse/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis(t *testing.T) {
	conf := &config.Config{}
	InitRedis(conf)
	assert.False(t, redis.IsConnected())

	mr := miniredis.RunT(t)
	conf.RedisConfig.Host = mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	conf.RedisConfig.Port = port
	InitRedis(conf)
	t.Cleanup(func() { _ = redis.Close() })
	assert.True(t, redis.IsConnected())
}

func TestMysqlDSN(t *testing.T) {
	dsn := MysqlDSN(config.MysqlConfig{Host: "db", Port: 3306, User: "crm", Password: "pw", DatabaseName: "clientpulse"})
	assert.Equal(t, "crm:pw@tcp(db:3306)/clientpulse?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
