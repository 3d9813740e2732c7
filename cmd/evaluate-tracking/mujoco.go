//go:build mujoco

package main

// Register the MuJoCo backend for runs configured with "backend": "mujoco"
import _ "github.com/samuelfneumann/moblarms/environment/sim/mujoco"
