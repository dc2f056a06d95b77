// Package vm implements the semigrafx execution environment.
//
// This package contains:
//   - The bounded buffer store (32 buffers of at most 1024 int32 cells)
//   - The builtin operation library handed to program factories
//   - The screen mapper projecting the screen buffer onto the 32x32 tile grid
//   - The program host and input dispatcher that drive re-rendering
//
// It is not a general purpose virtual machine: there is no call stack and
// no instruction pointer. Control flow belongs to the program factory.
package vm
