package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// machineState is the JSON-serializable part of a snapshot.
type machineState struct {
	Regs   [32]int32   `json:"regs"`
	FRegs  [32]float32 `json:"fregs"`
	HI     int32       `json:"hi"`
	LO     int32       `json:"lo"`
	FCC    bool        `json:"fcc"`
	PC     int         `json:"pc"`
	Steps  int         `json:"steps"`
	Halted bool        `json:"halted"`
}

// HibernateToBytes serialises the register file and both memory segments
// into an in-memory ZIP archive. The program text is not included; restore
// into a CPU built from the same Program.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		Regs: c.Regs, FRegs: c.FRegs, HI: c.HI, LO: c.LO, FCC: c.FCC,
		PC: c.PC, Steps: c.Steps, Halted: c.Halted,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal cpu_state")
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "data.bin", c.data); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "stack.bin", c.stack); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "close zip")
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes applies an archive produced by HibernateToBytes.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.Wrap(err, "open zip")
	}
	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return errors.Wrap(err, "unmarshal cpu_state")
	}
	if state.PC < 0 || state.PC > len(c.prog.Text) {
		return errors.Errorf("snapshot pc %d does not fit a program of %d instructions", state.PC, len(c.prog.Text))
	}

	dataSeg, err := readZipEntry(fileMap, "data.bin")
	if err != nil {
		return err
	}
	if len(dataSeg) != len(c.data) {
		return errors.Errorf("snapshot data segment is %d bytes, program needs %d", len(dataSeg), len(c.data))
	}
	stackSeg, err := readZipEntry(fileMap, "stack.bin")
	if err != nil {
		return err
	}
	if len(stackSeg) != len(c.stack) {
		return errors.Errorf("snapshot stack is %d bytes, want %d", len(stackSeg), len(c.stack))
	}

	c.Regs, c.FRegs = state.Regs, state.FRegs
	c.HI, c.LO, c.FCC = state.HI, state.LO, state.FCC
	c.PC, c.Steps, c.Halted = state.PC, state.Steps, state.Halted
	copy(c.data, dataSeg)
	copy(c.stack, stackSeg)
	return nil
}

// HibernateToFile writes the snapshot archive to path.
func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write snapshot")
}

// RestoreFromFile reads a snapshot archive from path.
func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read snapshot")
	}
	return c.RestoreFromBytes(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create zip entry %q", name)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, errors.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open zip entry %q", name)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
