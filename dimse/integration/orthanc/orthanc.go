// Package orthanc wraps a containerized Orthanc PACS for end-to-end
// association/DIMSE tests against a real implementation, rather than this
// toolkit's own SCP.
package orthanc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container wraps a running Orthanc instance, exposing both its DICOM
// Upper Layer endpoint and its REST API for out-of-band verification.
type Container struct {
	container testcontainers.Container
	DICOMHost string
	DICOMPort string
	HTTPHost  string
	HTTPPort  string
}

// Start provisions an Orthanc container configured to accept associations
// from any calling AE title and to allow C-ECHO/C-STORE without
// authentication, matching the permissive posture an SCU integration
// suite needs.
func Start(ctx context.Context) (*Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "orthancteam/orthanc:latest",
		ExposedPorts: []string{"4242/tcp", "8042/tcp"},
		Env: map[string]string{
			"ORTHANC__DICOM_AET":                 "ORTHANC",
			"ORTHANC__DICOM_CHECK_CALLED_AET":    "false",
			"ORTHANC__AUTHENTICATION_ENABLED":    "false",
			"ORTHANC__DICOM_ALWAYS_ALLOW_ECHO":   "true",
			"ORTHANC__DICOM_ALWAYS_ALLOW_STORE":  "true",
			"ORTHANC__REMOTE_ACCESS_ALLOWED":     "true",
			"ORTHANC__UNKNOWN_SOP_CLASS_ACCEPTED": "true",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4242/tcp"),
			wait.ForHTTP("/system").WithPort("8042/tcp").WithStartupTimeout(60*time.Second),
		),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start orthanc container: %w", err)
	}

	dicomHost, err := ctr.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve orthanc host: %w", err)
	}
	dicomPort, err := ctr.MappedPort(ctx, "4242/tcp")
	if err != nil {
		return nil, fmt.Errorf("resolve orthanc dicom port: %w", err)
	}
	httpPort, err := ctr.MappedPort(ctx, "8042/tcp")
	if err != nil {
		return nil, fmt.Errorf("resolve orthanc http port: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"dicom_addr": fmt.Sprintf("%s:%s", dicomHost, dicomPort.Port()),
		"http_addr":  fmt.Sprintf("%s:%s", dicomHost, httpPort.Port()),
	}).Info("orthanc integration container ready")

	return &Container{
		container: ctr,
		DICOMHost: dicomHost,
		DICOMPort: dicomPort.Port(),
		HTTPHost:  dicomHost,
		HTTPPort:  httpPort.Port(),
	}, nil
}

// Stop terminates the container.
func (o *Container) Stop(ctx context.Context) error {
	if o == nil || o.container == nil {
		return nil
	}
	logrus.Debug("orthanc integration container: terminating")
	return o.container.Terminate(ctx)
}

// DICOMAddress returns the host:port for DICOM Upper Layer associations.
func (o *Container) DICOMAddress() string {
	return fmt.Sprintf("%s:%s", o.DICOMHost, o.DICOMPort)
}

// HTTPBaseURL returns the base URL for Orthanc's REST API.
func (o *Container) HTTPBaseURL() string {
	return fmt.Sprintf("http://%s:%s", o.HTTPHost, o.HTTPPort)
}

// Instance is the subset of Orthanc's instance REST representation this
// toolkit's tests verify against.
type Instance struct {
	ID                 string `json:"ID"`
	ParentSeries       string `json:"ParentSeries"`
	MainDicomTags      map[string]string `json:"MainDicomTags"`
}

// GetInstances returns all instances Orthanc currently holds.
func (o *Container) GetInstances(ctx context.Context) ([]string, error) {
	var ids []string
	if err := o.getJSON(ctx, "/instances", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetStudies returns all study IDs Orthanc currently holds.
func (o *Container) GetStudies(ctx context.Context) ([]string, error) {
	var ids []string
	if err := o.getJSON(ctx, "/studies", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteAllContent wipes every patient from Orthanc, giving each test a
// clean slate without needing a fresh container.
func (o *Container) DeleteAllContent(ctx context.Context) error {
	var patients []string
	if err := o.getJSON(ctx, "/patients", &patients); err != nil {
		return err
	}
	for _, p := range patients {
		if err := o.delete(ctx, "/patients/"+p); err != nil {
			return fmt.Errorf("delete patient %s: %w", p, err)
		}
	}
	return nil
}

// ConfigureModality registers a remote AE in Orthanc's modality table so
// Orthanc can initiate a C-STORE/C-MOVE sub-operation against it.
func (o *Container) ConfigureModality(ctx context.Context, aeTitle, host string, port int) error {
	body, err := json.Marshal([]interface{}{aeTitle, host, port})
	if err != nil {
		return fmt.Errorf("marshal modality config: %w", err)
	}
	return o.put(ctx, "/modalities/"+aeTitle, body)
}

// SendToModality triggers Orthanc to push a stored instance to a
// previously configured modality via C-STORE.
func (o *Container) SendToModality(ctx context.Context, modality, instanceID string) error {
	body, err := json.Marshal(map[string]interface{}{
		"Resources": []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("marshal send-to-modality request: %w", err)
	}
	return o.post(ctx, "/modalities/"+modality+"/store", body)
}

func (o *Container) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.HTTPBaseURL()+path, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body for %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response body for %s: %w", path, err)
	}
	return nil
}

func (o *Container) put(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, o.HTTPBaseURL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build PUT request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("PUT %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PUT %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

func (o *Container) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.HTTPBaseURL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build POST request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

func (o *Container) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, o.HTTPBaseURL()+path, nil)
	if err != nil {
		return fmt.Errorf("build DELETE request for %s: %w", path, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("DELETE %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DELETE %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}
