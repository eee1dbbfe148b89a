package main

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/etesami/face-attribute-eval/pkg/oracle"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc"
)

// contentOracle predicts from the file content written by the test.
type contentOracle map[string]api.Prediction

func (c contentOracle) PredictImage(data []byte) (api.Prediction, error) {
	return c[string(data)], nil
}

func TestEvaluateWithRemoteOracle(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	oracle.RegisterOracleServer(srv, &oracle.Server{Predictor: contentOracle{
		"adult man":  {Gender: api.GenderMale, Age: &api.AgeRange{Low: 25, High: 32}},
		"young girl": {Gender: api.GenderMale, Age: &api.AgeRange{Low: 8, High: 12}},
	}})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dir := t.TempDir()
	for name, body := range map[string]string{
		"male_30.jpg":   "adult man",
		"female_10.jpg": "young girl",
		"male_50.jpg":   "empty room",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	host, port, err := net.SplitHostPort(lis.Addr().String())
	require.NoError(t, err)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--oracle-host", host, "--oracle-port", port, "--json", dir})
	require.NoError(t, rootCmd.Execute())

	var result map[string]float64
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Equal(t, 2.0, result["total"])
	require.Equal(t, 1.0, result["both_correct"])
	require.Equal(t, 1.0, result["age_only"])
	require.Equal(t, 1.0, result["no_face"])
	require.Equal(t, 75.0, result["net_accuracy"])
	require.Equal(t, 100.0, result["age_accuracy"])
	require.Equal(t, 50.0, result["gender_accuracy"])
}
