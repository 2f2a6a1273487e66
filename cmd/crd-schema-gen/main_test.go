package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configs = nil
	target = ""
	format = ""
	check = false
	gitRef = ""
	parallel = 0
	verbose = false

	rootCmd := newRootCmd()
	b := new(bytes.Buffer)
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return b.String(), err
}

func TestGenerateE2E(t *testing.T) {
	tempDir := t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	testdata := filepath.Join(wd, "..", "..", "testdata")

	testCases := []struct {
		name              string
		args              []string
		noTarget          bool
		wantErrMsg        string
		expectedFiles     []string
		fileContentChecks map[string][]string
	}{
		{
			name:       "no_configs_defined",
			args:       []string{"generate"},
			wantErrMsg: "at least one project file must be defined",
		},
		{
			name:       "target_not_defined",
			args:       []string{"generate", "--config", filepath.Join(testdata, "deployments.yaml")},
			noTarget:   true,
			wantErrMsg: `required flag(s) "target" not set`,
		},
		{
			name: "single_resource",
			args: []string{"generate", "--config", filepath.Join(testdata, "deployments.yaml")},
			expectedFiles: []string{
				"apps.example.com_deployments.yaml",
			},
			fileContentChecks: map[string][]string{
				"apps.example.com_deployments.yaml": {
					"kind: CustomResourceDefinition",
					"name: deployments.apps.example.com",
					"group: apps.example.com",
					"listKind: DeploymentList",
					"- dpl",
					"specReplicasPath: .spec.maxReplicas",
					"jsonPath: .metadata.creationTimestamp",
					"jsonPath: .spec.maxReplicas",
					"maxReplicas:",
					"updatedAt:",
					"format: date-time",
					"nullable: true",
					"default: RollingUpdate",
					"x-kubernetes-int-or-string: true",
					"x-kubernetes-preserve-unknown-fields: true",
					"app.kubernetes.io/managed-by: crd-schema-gen",
					"strategy: None",
				},
			},
		},
		{
			name: "multiple_configs_json",
			args: []string{
				"generate",
				"--config", filepath.Join(testdata, "deployments.yaml"),
				"--config", filepath.Join(testdata, "multiversion.yaml"),
				"--format", "json",
				"--parallel", "2",
			},
			expectedFiles: []string{
				"apps.example.com_deployments.json",
				"stable.example.com_crontabs.json",
			},
			fileContentChecks: map[string][]string{
				"stable.example.com_crontabs.json": {
					`"scope": "Cluster"`,
					`"deprecationWarning": "stable.example.com/v1beta1 CronTab is deprecated"`,
					`"suspend": {`,
				},
			},
		},
		{
			name:       "recursive_model",
			args:       []string{"generate", "--config", filepath.Join(testdata, "recursive.yaml")},
			wantErrMsg: "spec.children[*]: recursive schema Node -> Node",
		},
		{
			name:       "invalid_config",
			args:       []string{"generate", "--config", filepath.Join(testdata, "invalid.yaml")},
			wantErrMsg: `unknown field "minLength"`,
		},
		{
			name:       "unknown_format",
			args:       []string{"generate", "--config", filepath.Join(testdata, "deployments.yaml"), "--format", "toml"},
			wantErrMsg: `unknown format "toml"`,
		},
		{
			name:       "invalid_git_reference",
			args:       []string{"generate", "--config", "deployments.yaml", "--git", "@v1"},
			wantErrMsg: "invalid git reference",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			targetDir := filepath.Join(tempDir, tc.name)
			require.NoError(t, os.Mkdir(targetDir, 0o755))

			finalArgs := tc.args
			if !tc.noTarget {
				finalArgs = append(finalArgs, "--target", targetDir)
			}

			_, err := execute(t, finalArgs...)

			if tc.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErrMsg)
				return
			}
			require.NoError(t, err)

			for _, file := range tc.expectedFiles {
				assert.FileExists(t, filepath.Join(targetDir, file))
			}
			for file, contents := range tc.fileContentChecks {
				data, err := os.ReadFile(filepath.Join(targetDir, file))
				require.NoError(t, err)
				for _, content := range contents {
					assert.Contains(t, string(data), content)
				}
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	config := filepath.Join(wd, "..", "..", "testdata", "deployments.yaml")

	var outputs []string
	for range 2 {
		dir := t.TempDir()
		_, err := execute(t, "generate", "--config", config, "--target", dir)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, "apps.example.com_deployments.yaml"))
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestGenerateCheck(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	config := filepath.Join(wd, "..", "..", "testdata", "multiversion.yaml")
	dir := t.TempDir()

	out, err := execute(t, "generate", "--config", config, "--target", dir, "--check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 manifest(s) out of date")
	assert.Contains(t, out, "reason=missing")

	out, err = execute(t, "generate", "--config", config, "--target", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully generated CRD")
	assert.Contains(t, out, "versions have different schemas")

	_, err = execute(t, "generate", "--config", config, "--target", dir, "--check")
	require.NoError(t, err)

	file := filepath.Join(dir, "stable.example.com_crontabs.yaml")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, bytes.Replace(data, []byte("storage: true"), []byte("storage: false"), 1), 0o644))

	out, err = execute(t, "generate", "--config", config, "--target", dir, "--check")
	require.Error(t, err)
	assert.Contains(t, out, "storage version changed")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}
