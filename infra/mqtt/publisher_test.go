package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ersim/core/factory"
	coremetrics "github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/model"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	connectErr  error
	disconnects int
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	return &dummyToken{err: m.connectErr}
}
func (m *mockClient) Disconnect(uint) { m.disconnects++ }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, retained, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

func useMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func TestPublisherStreams(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", TopicPrefix: "city/", QoS: map[string]byte{"tick": 1, "status": 1}})
	require.NoError(t, err)

	require.Len(t, mc.published, 1)
	assert.Equal(t, "city/status", mc.published[0].topic)
	assert.True(t, mc.published[0].retained)
	assert.Equal(t, "online", string(mc.published[0].payload))
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "city/status", mc.opts.WillTopic)
	assert.Equal(t, "offline", string(mc.opts.WillPayload))

	require.NoError(t, pub.RecordTick(coremetrics.TickEvent{RunID: "r1", Tick: model.TickRecord{Time: 4, Score: 2, Closed: []string{"E1"}}, EnRoute: 1}))
	require.NoError(t, pub.RecordOutcome(coremetrics.Outcome{RunID: "r1", EmergencyID: "E1", Category: model.CategoryFire, State: model.EmergencyResolved, UnitID: "F1-0", CreatedAt: 0, ClosedAt: 10, Points: 1}))
	require.NoError(t, pub.RecordDispatch(coremetrics.DispatchEvent{RunID: "r1", EmergencyID: "E2", UnitID: "F1-0", UnitCategory: model.CategoryFire, EmergencyCategory: model.CategoryMedical, Time: 4, Cost: 3}))

	require.Len(t, mc.published, 4)
	tick := mc.published[1]
	assert.Equal(t, "city/r1/tick", tick.topic)
	assert.Equal(t, byte(1), tick.qos)
	var tm tickMessage
	require.NoError(t, json.Unmarshal(tick.payload, &tm))
	assert.Equal(t, 2, tm.Tick.Score)
	assert.Equal(t, 1, tm.EnRoute)

	out := mc.published[2]
	assert.Equal(t, "city/r1/outcome", out.topic)
	assert.Equal(t, byte(0), out.qos)
	var om outcomeMessage
	require.NoError(t, json.Unmarshal(out.payload, &om))
	assert.Equal(t, "resolved", om.Outcome)
	assert.Equal(t, "fire", om.Category)
	assert.Equal(t, 10.0, om.ResponseTime)

	var dm dispatchMessage
	require.NoError(t, json.Unmarshal(mc.published[3].payload, &dm))
	assert.Equal(t, "city/r1/dispatch", mc.published[3].topic)
	assert.Equal(t, "medical", dm.EmergencyCategory)

	require.NoError(t, pub.Close())
	assert.Equal(t, "offline", string(mc.published[4].payload))
	assert.Equal(t, 1, mc.disconnects)
}

func TestPublisherRetries(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	mc.published = nil

	mc.publishErrs = []error{errors.New("net fail"), nil}
	require.NoError(t, pub.RecordTick(coremetrics.TickEvent{RunID: "r"}))
	assert.Len(t, mc.published, 2)

	mc.publishErrs = []error{errors.New("net fail"), errors.New("net fail")}
	assert.Error(t, pub.RecordTick(coremetrics.TickEvent{RunID: "r"}))
}

func TestPublisherConnectError(t *testing.T) {
	useMock(t, &mockClient{connectErr: errors.New("refused")})
	_, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	assert.ErrorContains(t, err, "refused")

	_, err = NewPublisher(Config{})
	assert.Error(t, err)
}

func TestMQTTSinkFactory(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "mqtt",
		Conf: map[string]any{"broker": "tcp://localhost:1883", "client_id": "sim", "qos": map[string]any{"tick": 2}},
	}})
	require.NoError(t, err)
	pub, ok := sink.(*Publisher)
	require.True(t, ok, "got %T", sink)
	assert.Equal(t, byte(2), pub.cfg.QoS["tick"])
	assert.Equal(t, "ersim", pub.cfg.TopicPrefix)
}

func pemBlock(typ string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
}

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pemBlock("CERTIFICATE", der)
	keyPEM := pemBlock("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	require.NoError(t, os.WriteFile(certFile, certPEM, 0644))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0644))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0644))
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, tlsCfg.Certificates)
	assert.NotNil(t, tlsCfg.RootCAs)

	_, err = Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
}
