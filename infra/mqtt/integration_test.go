package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremetrics "github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/model"
)

// TestIntegration publishes a tick stream to a real Mosquitto broker.
func TestIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("ersim-itest-sub"))
	var tok paho.Token
	for i := 0; i < 5; i++ {
		tok = sub.Connect()
		if tok.WaitTimeout(5*time.Second) && tok.Error() == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, tok.Error())
	defer sub.Disconnect(250)

	msgs := make(chan paho.Message, 8)
	tok = sub.Subscribe("ersim/itest/#", 1, func(_ paho.Client, m paho.Message) { msgs <- m })
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	pub, err := NewPublisher(Config{Broker: broker, ClientID: "ersim-itest-pub"})
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	tick := model.TickRecord{Time: 3, EmergencyID: "E1", Score: 2, Closed: []string{}}
	require.NoError(t, pub.RecordTick(coremetrics.TickEvent{RunID: "itest", Tick: tick, EnRoute: 1, Active: 1}))

	select {
	case m := <-msgs:
		assert.Equal(t, "ersim/itest/tick", m.Topic())
		var got tickMessage
		require.NoError(t, json.Unmarshal(m.Payload(), &got))
		assert.Equal(t, "itest", got.RunID)
		assert.Equal(t, "E1", got.Tick.EmergencyID)
		assert.Equal(t, 2, got.Tick.Score)
	case <-time.After(5 * time.Second):
		t.Fatal("no tick received")
	}
}
