package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVmwasm(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := newRootCmd(&outBuf, &errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestRunCmd_Fib20(t *testing.T) {
	stdout, _, err := runVmwasm(t, "run", "--fixture", "fib", "--export", "fib", "--param", "20")
	require.NoError(t, err)
	assert.Equal(t, "result[0] = 6765\n", stdout)
}

func TestRunCmd_OutOfFuelReportsRequiredFuel(t *testing.T) {
	_, _, err := runVmwasm(t, "run", "--fixture", "fib", "--param", "20", "--fuel", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ran out of fuel")
}

func TestCompileCmd_ReportsShape(t *testing.T) {
	stdout, _, err := runVmwasm(t, "compile", "--fixture", "add")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 type(s), 1 func(s), 0 import(s)")
}

func TestDisasmCmd_PrintsOps(t *testing.T) {
	stdout, _, err := runVmwasm(t, "disasm", "--fixture", "add", "--export", "add")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0000:")
}

func TestRunCmd_UnknownFixtureErrors(t *testing.T) {
	_, _, err := runVmwasm(t, "run", "--fixture", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fixture")
}

func TestBenchCmd_RunsVmwasmLeg(t *testing.T) {
	stdout, _, err := runVmwasm(t, "bench", "--n", "10", "--iterations", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "vmwasm:")
	assert.Contains(t, stdout, "result=55")
}
