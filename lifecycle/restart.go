//
// Copyright 2026 Droidspaces contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package lifecycle

import (
	"fmt"

	"github.com/dspacesrt/droidspaces/config"
	"github.com/sirupsen/logrus"
)

// Restart stops cfg.Name without unmounting its backing image/overlay,
// then starts it again against the same mount — the monitor's exit
// cleanup checks the restart marker Stop leaves behind and skips the
// unmount step accordingly.
func Restart(cfg *config.Config, log *logrus.Entry) error {
	if err := Stop(cfg.Name, true, log); err != nil {
		return fmt.Errorf("lifecycle: restart: stop phase: %w", err)
	}
	if err := Start(cfg, log); err != nil {
		return fmt.Errorf("lifecycle: restart: start phase: %w", err)
	}
	return nil
}
