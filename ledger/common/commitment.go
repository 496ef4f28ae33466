// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"fmt"
	"strings"
)

// Commitment is the degree of network agreement on a transaction. Levels are
// ordered: CommitmentProcessed < CommitmentConfirmed < CommitmentFinalized
type Commitment uint8

const (
	CommitmentNone Commitment = iota
	CommitmentProcessed
	CommitmentConfirmed
	CommitmentFinalized
)

func (c Commitment) String() string {
	switch c {
	case CommitmentProcessed:
		return "processed"
	case CommitmentConfirmed:
		return "confirmed"
	case CommitmentFinalized:
		return "finalized"
	default:
		return "none"
	}
}

// AtLeast reports whether c has reached the target level
func (c Commitment) AtLeast(target Commitment) bool {
	return c >= target
}

func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Commitment) UnmarshalText(data []byte) error {
	tmp, err := ParseCommitment(string(data))
	if err != nil {
		return err
	}
	*c = tmp
	return nil
}

// ParseCommitment returns the commitment level with the given name
func ParseCommitment(name string) (Commitment, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "processed":
		return CommitmentProcessed, nil
	case "confirmed":
		return CommitmentConfirmed, nil
	case "finalized":
		return CommitmentFinalized, nil
	default:
		return CommitmentNone, fmt.Errorf("unknown commitment level: %q", name)
	}
}
