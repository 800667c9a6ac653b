/*
	pic24flash
	Copyright (c) 2023 bassbreaker

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package firmware

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/arduino/go-paths-helper"
	"github.com/bassbreaker/pic24flash/cli/arguments"
	"github.com/bassbreaker/pic24flash/cli/feedback"
	"github.com/bassbreaker/pic24flash/cli/globals"
	"github.com/bassbreaker/pic24flash/flasher"
	"github.com/bassbreaker/pic24flash/hexfile"
	"github.com/bassbreaker/pic24flash/protocol"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/downloader/v2"
	semver "go.bug.st/relaxed-semver"
)

var (
	commonFlags arguments.Flags
	fwFile      string
	fwURL       string
	retries     int
	minVersion  string
	verify      bool
)

// newFlashCommand creates a new `flash` command
func newFlashCommand() *cobra.Command {
	flashCmd := &cobra.Command{
		Use:   "flash",
		Short: "Flashes a firmware image to the device.",
		Long:  "Erases the device and writes the specified Intel HEX firmware image through the UART bootloader.",
		Example: "" +
			"  " + os.Args[0] + " firmware flash -a /dev/ttyUSB0 -i blink.hex\n" +
			"  " + os.Args[0] + " firmware flash -a COM10 -u https://example.com/firmware/blink.hex\n",
		Args: cobra.NoArgs,
		Run:  runFlash,
	}
	commonFlags.AddToCommand(flashCmd)
	flashCmd.Flags().StringVarP(&fwFile, "input-file", "i", "", "Path of the firmware image to flash")
	flashCmd.Flags().StringVarP(&fwURL, "input-url", "u", "", "URL of the firmware image to flash")
	flashCmd.Flags().IntVar(&retries, "retries", 9, "Number of retries in case of flashing failure")
	flashCmd.Flags().StringVar(&minVersion, "min-bootloader-version", "", "Fail if the bootloader version is older than this")
	flashCmd.Flags().BoolVar(&verify, "verify", false, "Run the bootloader self verify after flashing")
	return flashCmd
}

func runFlash(cmd *cobra.Command, args []string) {
	if retries < 1 {
		feedback.Fatal("Number of retries should be at least 1", feedback.ErrBadArgument)
	}
	if fwFile == "" && fwURL == "" {
		feedback.Fatal("Please specify a firmware image with --input-file or --input-url", feedback.ErrBadArgument)
	}
	if fwFile != "" && fwURL != "" {
		feedback.Fatal("--input-file and --input-url cannot be used together", feedback.ErrBadArgument)
	}
	address, baudRate := commonFlags.Resolve()

	var firmwareFilePath *paths.Path
	if fwFile != "" {
		firmwareFilePath = paths.New(fwFile)
		if !firmwareFilePath.Exist() {
			feedback.Fatal(fmt.Sprintf("firmware file not found in %s", firmwareFilePath), feedback.ErrGeneric)
		}
	} else {
		fwPath, err := downloadFirmware(fwURL)
		if err != nil {
			feedback.Fatal(fmt.Sprintf("Error downloading firmware from %s: %s", fwURL, err), feedback.ErrNetwork)
		}
		firmwareFilePath = fwPath
		defer firmwareFilePath.Parent().RemoveAll()
	}
	logrus.Debugf("Reading firmware image %s", firmwareFilePath)

	image, err := hexfile.ParseFile(firmwareFilePath)
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error parsing firmware image: %s", err), feedback.ErrGeneric)
	}

	var minVer *semver.RelaxedVersion
	if minVersion != "" {
		minVer = semver.ParseRelaxed(minVersion)
	}

	retry := 0
	for {
		retry++
		logrus.Infof("Flashing firmware (try %d of %d)", retry, retries)

		res, err := flash(address, baudRate, image, minVer)
		if err == nil {
			feedback.PrintResult(res)
			logrus.Info("Operation completed: success! :-)")
			break
		}
		logrus.Error(err)

		if retry == retries {
			feedback.FatalError(err, feedback.ErrGeneric)
		}

		logrus.Info("Waiting 1 second before retrying...")
		time.Sleep(time.Second)
	}
}

// downloadFirmware fetches the image from a URL into a temporary directory.
func downloadFirmware(url string) (*paths.Path, error) {
	tmpDir, err := paths.MkTempDir("", "pic24flash")
	if err != nil {
		return nil, err
	}
	firmwarePath := tmpDir.Join(path.Base(url))
	d, err := downloader.Download(firmwarePath.String(), url)
	if err != nil {
		return nil, err
	}
	if err := d.Run(); err != nil {
		return nil, fmt.Errorf("failed to download file from %s : %s", d.URL, err)
	}
	if d.Resp.StatusCode >= 400 && d.Resp.StatusCode <= 599 {
		return nil, fmt.Errorf("%s", d.Resp.Status)
	}
	logrus.Debugf("firmware file downloaded in %s", firmwarePath)
	return firmwarePath, nil
}

// flash runs one complete programming sequence: query, erase, write, the
// optional self verify, then reset.
func flash(address string, baudRate int, image *hexfile.Image, minVer *semver.RelaxedVersion) (*flasher.FlashResult, error) {
	f, err := flasher.Open(address, baudRate, globals.DefaultReadTimeout)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := f.QueryVersion(); err != nil {
		return nil, err
	}
	if err := f.QueryMemoryRange(); err != nil {
		return nil, err
	}
	info := f.Info()
	logrus.Infof("Bootloader %s, device ID 0x%04X", info.VersionString(), info.DeviceID)

	if minVer != nil {
		current := semver.ParseRelaxed(info.VersionString())
		if current.LessThan(minVer) {
			return nil, fmt.Errorf("bootloader version %s is older than the required %s", current, minVer)
		}
	}

	if status, err := f.EraseFull(); err != nil {
		return nil, err
	} else if !status.OK() {
		return nil, &protocol.ProtocolError{Op: "erase", Status: status}
	}

	if feedback.GetFormat() == feedback.Text {
		f.SetProgressCallback(printProgress)
	}
	written, err := f.WriteImage(image)
	if err != nil {
		return nil, err
	}

	if verify {
		if status, err := f.SelfVerify(); err != nil {
			return nil, err
		} else if !status.OK() {
			return nil, &protocol.ProtocolError{Op: "self verify", Status: status}
		}
	}

	if status, err := f.Reset(); err != nil {
		return nil, err
	} else if !status.OK() {
		return nil, &protocol.ProtocolError{Op: "reset", Status: status}
	}

	return &flasher.FlashResult{
		BootloaderVersion: info.VersionString(),
		DeviceID:          fmt.Sprintf("0x%04X", info.DeviceID),
		BytesWritten:      written,
	}, nil
}

// callback used to print the progress
func printProgress(progress int) {
	fmt.Printf("Flashing progress: %d%%\r", progress)
}
