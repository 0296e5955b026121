// Package util holds helpers shared by the integration tests: HTTP and
// metrics polling, and a disposable Mosquitto broker.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	HTTPServerTimeout = 5 * time.Second
	BrokerTimeout     = time.Minute
	MetricTimeout     = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
log_dest stdout
connection_messages true
`

// poll calls check until it reports done, returns an error or ctx ends.
func poll(ctx context.Context, what string, check func() (bool, error)) error {
	for {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// WaitForHTTP waits until url answers 200.
func WaitForHTTP(ctx context.Context, url string) error {
	return poll(ctx, "server not ready", func() (bool, error) {
		code, _, err := get(ctx, url)
		return err == nil && code == http.StatusOK, nil
	})
}

// WaitForMetric waits until the exposition at metricsURL contains substr,
// for instance `playback_runs_total{result="finished"} 1`.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	return poll(ctx, fmt.Sprintf("metric %q not found", substr), func() (bool, error) {
		_, body, err := get(ctx, metricsURL)
		return err == nil && strings.Contains(string(body), substr), nil
	})
}

// Mosquitto starts a throwaway broker for the duration of the test and
// returns its tcp:// URL. The test is skipped under -short or when no
// container runtime is reachable.
func Mosquitto(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("broker test skipped in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), BrokerTimeout)
	defer cancel()

	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				Reader:            strings.NewReader(mosquittoConf),
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	endpoint, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		t.Fatalf("broker endpoint: %v", err)
	}
	if err := waitForBroker(ctx, endpoint); err != nil {
		t.Fatalf("broker not ready: %v", err)
	}
	return endpoint
}

// waitForBroker connects a probe client until the broker accepts it.
func waitForBroker(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("probe-" + uuid.NewString()[:8]).
		SetConnectTimeout(time.Second)
	return poll(ctx, "broker", func() (bool, error) {
		cli := paho.NewClient(opts)
		tok := cli.Connect()
		if !tok.WaitTimeout(2*time.Second) || tok.Error() != nil {
			return false, nil
		}
		cli.Disconnect(100)
		return true, nil
	})
}
