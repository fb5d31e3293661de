// Package testsupport holds small filesystem helpers shared by package tests.
package testsupport
