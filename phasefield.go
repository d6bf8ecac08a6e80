/*
Copyright © 2022 the PhaseField authors.
This file is part of PhaseField.

PhaseField is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PhaseField is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PhaseField.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package phasefield post-processes output from phase-field cell
// simulations. It reconstructs, for each stored timestep, spatial fields
// of derived cell properties (velocity, nematic orientation, normalized
// nematic tensor) by painting each cell's property value onto the grid
// pixels that cell occupies in the rasterized rank field.
package phasefield

// Version gives the version number.
const Version = "1.1.0"
